package registry

import (
	"embed"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

//go:embed deployments/*.json
var deploymentFiles embed.FS

// ContractDetails describes one deployed contract of the protocol.
type ContractDetails struct {
	Name    string         `json:"name"`
	Group   string         `json:"group,omitempty"`
	Address common.Address `json:"address"`
	// Txn is the deployment transaction; its block is the scan floor for
	// event discovery on this contract.
	Txn common.Hash `json:"txn"`
}

// Filter narrows a registry lookup. Zero-valued fields match everything.
type Filter struct {
	Name  string
	Group string
}

type networkFile struct {
	ChainID   uint64            `json:"chainId"`
	Contracts []ContractDetails `json:"contracts"`
}

// Registry is the in-process address book of protocol deployments, keyed by
// network name.
type Registry struct {
	networks map[string]networkFile
}

// Load parses the embedded deployment files.
func Load() (*Registry, error) {
	entries, err := deploymentFiles.ReadDir("deployments")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded deployments: %w", err)
	}

	reg := &Registry{networks: make(map[string]networkFile)}
	for _, entry := range entries {
		raw, err := deploymentFiles.ReadFile("deployments/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read deployment file %s: %w", entry.Name(), err)
		}
		var nf networkFile
		if err := json.Unmarshal(raw, &nf); err != nil {
			return nil, fmt.Errorf("failed to parse deployment file %s: %w", entry.Name(), err)
		}
		network := strings.TrimSuffix(entry.Name(), ".json")
		reg.networks[network] = nf
	}
	return reg, nil
}

// Lookup returns every contract on the given network matching the filter.
func (r *Registry) Lookup(network string, f Filter) []ContractDetails {
	nf, ok := r.networks[network]
	if !ok {
		return nil
	}

	var out []ContractDetails
	for _, c := range nf.Contracts {
		if f.Name != "" && c.Name != f.Name {
			continue
		}
		if f.Group != "" && c.Group != f.Group {
			continue
		}
		out = append(out, c)
	}
	return out
}

// One returns exactly one matching contract, erroring on zero or ambiguous
// matches.
func (r *Registry) One(network string, f Filter) (ContractDetails, error) {
	matches := r.Lookup(network, f)
	switch len(matches) {
	case 0:
		return ContractDetails{}, fmt.Errorf("no contract found on %s for name=%q group=%q", network, f.Name, f.Group)
	case 1:
		return matches[0], nil
	default:
		return ContractDetails{}, fmt.Errorf("more than one contract found on %s for name=%q group=%q", network, f.Name, f.Group)
	}
}

// NetworkByChainID maps a chain id back to its network name.
func (r *Registry) NetworkByChainID(chainID *big.Int) (string, error) {
	if chainID == nil {
		return "", fmt.Errorf("nil chain id")
	}
	for name, nf := range r.networks {
		if nf.ChainID == chainID.Uint64() {
			return name, nil
		}
	}
	return "", fmt.Errorf("no known network for chain id %s", chainID)
}
