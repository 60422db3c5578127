package clearinghouse

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielglasgow/bracehealth/internal/domain"
)

// PayerConfig describes how the simulated clearinghouse answers for one
// payer: the response arrives after a uniformly random delay within the
// configured window.
type PayerConfig struct {
	PayerID            domain.PayerID `yaml:"payer_id"`
	MinResponseSeconds int            `yaml:"min_response_seconds"`
	MaxResponseSeconds int            `yaml:"max_response_seconds"`
}

func (c PayerConfig) validate() error {
	if c.PayerID == "" {
		return fmt.Errorf("payer config missing payer_id")
	}
	if c.MinResponseSeconds < 0 || c.MaxResponseSeconds < c.MinResponseSeconds {
		return fmt.Errorf("payer %s has invalid response window [%d, %d]",
			c.PayerID, c.MinResponseSeconds, c.MaxResponseSeconds)
	}
	return nil
}

// DefaultPayerConfigs covers the demo payers with a 1-10s response
// window each.
func DefaultPayerConfigs() map[domain.PayerID]PayerConfig {
	payers := []domain.PayerID{domain.PayerMedicare, domain.PayerUnitedHealthGroup, domain.PayerAnthem}
	configs := make(map[domain.PayerID]PayerConfig, len(payers))
	for _, payer := range payers {
		configs[payer] = PayerConfig{PayerID: payer, MinResponseSeconds: 1, MaxResponseSeconds: 10}
	}
	return configs
}

// LoadPayerConfigs reads payer configs from a yaml file of the form:
//
//	payers:
//	  - payer_id: MEDICARE
//	    min_response_seconds: 1
//	    max_response_seconds: 10
func LoadPayerConfigs(path string) (map[domain.PayerID]PayerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payer config: %w", err)
	}
	var file struct {
		Payers []PayerConfig `yaml:"payers"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode payer config %s: %w", path, err)
	}
	if len(file.Payers) == 0 {
		return nil, fmt.Errorf("payer config %s lists no payers", path)
	}
	configs := make(map[domain.PayerID]PayerConfig, len(file.Payers))
	for _, cfg := range file.Payers {
		if err := cfg.validate(); err != nil {
			return nil, err
		}
		if _, ok := configs[cfg.PayerID]; ok {
			return nil, fmt.Errorf("payer %s configured twice", cfg.PayerID)
		}
		configs[cfg.PayerID] = cfg
	}
	return configs, nil
}
