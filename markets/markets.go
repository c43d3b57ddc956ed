package markets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/defistate/routematrix-go/engine"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrDuplicateSymbol is returned when two tokens of a market file share a symbol.
var ErrDuplicateSymbol = errors.New("duplicate token symbol")

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("hexaddr", func(fl validator.FieldLevel) bool {
		return common.IsHexAddress(fl.Field().String())
	}); err != nil {
		panic(err)
	}
}

// Token is a token entry of a market file.
type Token struct {
	Symbol   string `yaml:"symbol" json:"symbol" validate:"required"`
	Address  string `yaml:"address" json:"address" validate:"omitempty,hexaddr"`
	Decimals uint8  `yaml:"decimals" json:"decimals"`
}

// HexAddress returns the token contract address, or the zero address if none is set.
func (t Token) HexAddress() common.Address {
	return common.HexToAddress(t.Address)
}

// Pair is a tradable token pair on one protocol. Pool is informational.
type Pair struct {
	TokenA   string `yaml:"tokenA" json:"tokenA" validate:"required"`
	TokenB   string `yaml:"tokenB" json:"tokenB" validate:"required"`
	Protocol string `yaml:"protocol" json:"protocol" validate:"required"`
	Pool     string `yaml:"pool" json:"pool" validate:"omitempty,hexaddr"`
}

// Markets is the parsed content of a market file: the token universe of one
// chain and the pairs connecting those tokens.
type Markets struct {
	Chain  string  `yaml:"chain" json:"chain"`
	Tokens []Token `yaml:"tokens" json:"tokens" validate:"dive"`
	Pairs  []Pair  `yaml:"pairs" json:"pairs" validate:"dive"`
}

// LoadFile reads a market file from path. Files with a .json extension are
// parsed as JSON, everything else as YAML. The result is validated.
func LoadFile(path string) (*Markets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Markets
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &m)
	} else {
		err = yaml.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// Validate checks field constraints and symbol uniqueness. Pairs may
// reference tokens that are not listed.
func (m *Markets) Validate() error {
	if err := validate.Struct(m); err != nil {
		return formatValidationError(err)
	}
	seen := make(map[string]struct{}, len(m.Tokens))
	for _, t := range m.Tokens {
		if _, ok := seen[t.Symbol]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateSymbol, t.Symbol)
		}
		seen[t.Symbol] = struct{}{}
	}
	return nil
}

// Universe returns the token symbols in file order.
func (m *Markets) Universe() []engine.Token {
	universe := make([]engine.Token, len(m.Tokens))
	for i, t := range m.Tokens {
		universe[i] = engine.Token(t.Symbol)
	}
	return universe
}

// PairEdges returns the pairs in file order.
func (m *Markets) PairEdges() []engine.PairEdge {
	edges := make([]engine.PairEdge, len(m.Pairs))
	for i, p := range m.Pairs {
		edges[i] = engine.PairEdge{
			TokenA:   engine.Token(p.TokenA),
			TokenB:   engine.Token(p.TokenB),
			Protocol: engine.Protocol(p.Protocol),
		}
	}
	return edges
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// report the first failure only
	for _, e := range validationErrs {
		field := e.Namespace()
		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "hexaddr":
			return fmt.Errorf("%s: invalid hex address %q", field, e.Value())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}
	return err
}
