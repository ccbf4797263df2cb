package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// ApprovalRuleSpec regla de aprobación tal como se declara en APPROVAL_MATRIX_FILE.
//
//	approval_rules:
//	  - action: "ap:payment > 10000"
//	    roles: [controller, cfo]
//	    policy: two-step
type ApprovalRuleSpec struct {
	Action    string   `mapstructure:"action"`
	MinAmount string   `mapstructure:"min_amount"`
	Roles     []string `mapstructure:"roles"`
	Policy    string   `mapstructure:"policy"`
}

// LoadApprovalRules lee la clave approval_rules del archivo (yaml, json o toml según extensión).
func LoadApprovalRules(path string) ([]ApprovalRuleSpec, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("leer matriz de aprobaciones %s: %w", path, err)
	}
	var specs []ApprovalRuleSpec
	if err := v.UnmarshalKey("approval_rules", &specs); err != nil {
		return nil, fmt.Errorf("decodificar approval_rules: %w", err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("matriz de aprobaciones %s sin reglas", path)
	}
	return specs, nil
}
