// Command sapio compiles a contract description into a taproot
// address and the committed transaction templates behind it.
//
// The contract is described by a JSON file, e.g.
//
//	{"kind": "vault", "hot": "<hex pubkey>", "cold": "<hex pubkey>", "delay": 144}
//
// or
//
//	{
//		"kind": "pegin",
//		"federation": ["<hex pubkey>", ...], "threshold": 2,
//		"recovery": ["<hex pubkey>", ...], "recovery_threshold": 2,
//		"emergency_delay": 4032
//	}
//
// The target network and the funds bound to the contract come from
// the NETWORK and FUNDS environment variables. An optional effect
// database file supplies arguments to continuation points:
//
//	{"root/finishorfn/suggested/propose-withdrawal": {"w1": {"address": "...", "amount": 100000}}}
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/Georgantas/sapio/contract"
	"github.com/Georgantas/sapio/contrib"
	"github.com/Georgantas/sapio/effects"
	"github.com/Georgantas/sapio/env"
	"github.com/Georgantas/sapio/errors"
	"github.com/Georgantas/sapio/log"
)

var (
	network = env.String("NETWORK", "regtest")
	funds   = env.Int64("FUNDS", 0)
)

func main() {
	env.Parse()
	configPath := flag.String("config", "", "contract description file")
	effectsPath := flag.String("effects", "", "optional effect database file")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: sapio -config FILE [-effects FILE]")
		os.Exit(2)
	}

	ctx := context.Background()
	if err := run(*configPath, *effectsPath, os.Stdout); err != nil {
		log.Error(ctx, err)
		os.Exit(1)
	}
}

func run(configPath, effectsPath string, out *os.File) error {
	c, err := loadContract(configPath)
	if err != nil {
		return err
	}
	db, err := loadEffects(effectsPath)
	if err != nil {
		return err
	}
	net, err := networkParams(*network)
	if err != nil {
		return err
	}

	cctx := contract.NewContext(net, btcutil.Amount(*funds), nil, nil, db)
	compiled, err := contract.Compile(cctx, c)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "\t")
	return enc.Encode(renderArtifact(compiled))
}

type contractConfig struct {
	Kind string `json:"kind"`

	Hot   string `json:"hot"`
	Cold  string `json:"cold"`
	Delay uint32 `json:"delay"`

	Federation        []string `json:"federation"`
	Threshold         int      `json:"threshold"`
	Recovery          []string `json:"recovery"`
	RecoveryThreshold int      `json:"recovery_threshold"`
	EmergencyDelay    uint32   `json:"emergency_delay"`
}

func loadContract(path string) (contract.Contract, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading contract description")
	}
	var cfg contractConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrap(err, "parsing contract description")
	}

	switch cfg.Kind {
	case "vault":
		hot, err := parseKey(cfg.Hot)
		if err != nil {
			return nil, errors.Wrap(err, "hot key")
		}
		cold, err := parseKey(cfg.Cold)
		if err != nil {
			return nil, errors.Wrap(err, "cold key")
		}
		return contrib.Vault{Hot: hot, Cold: cold, Delay: cfg.Delay}, nil
	case "pegin":
		federation, err := parseKeys(cfg.Federation)
		if err != nil {
			return nil, errors.Wrap(err, "federation keys")
		}
		recovery, err := parseKeys(cfg.Recovery)
		if err != nil {
			return nil, errors.Wrap(err, "recovery keys")
		}
		return contrib.FederatedPegIn{
			Federation:        federation,
			Threshold:         cfg.Threshold,
			Recovery:          recovery,
			RecoveryThreshold: cfg.RecoveryThreshold,
			EmergencyDelay:    cfg.EmergencyDelay,
		}, nil
	}
	return nil, errors.Wrapf(errors.New("unknown contract kind"), "%q", cfg.Kind)
}

func loadEffects(path string) (effects.DB, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading effect database")
	}
	var byPath map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byPath); err != nil {
		return nil, errors.Wrap(err, "parsing effect database")
	}
	db := effects.NewMapDB()
	for path, entries := range byPath {
		for key, value := range entries {
			db.Set(path, key, value)
		}
	}
	return db, nil
}

func parseKey(s string) (*btcec.PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return btcec.ParsePubKey(raw)
}

func parseKeys(ss []string) ([]*btcec.PublicKey, error) {
	keys := make([]*btcec.PublicKey, 0, len(ss))
	for _, s := range ss {
		k, err := parseKey(s)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func networkParams(name string) (*chaincfg.Params, error) {
	switch name {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	}
	return nil, errors.Wrapf(errors.New("unknown network"), "%q", name)
}

type artifactJSON struct {
	Address       string             `json:"address"`
	Descriptor    string             `json:"descriptor"`
	MinAmount     int64              `json:"min_amount"`
	MaxAmount     int64              `json:"max_amount"`
	Templates     []templateJSON     `json:"templates,omitempty"`
	Suggested     []templateJSON     `json:"suggested,omitempty"`
	Continuations []continuationJSON `json:"continuations,omitempty"`
}

type templateJSON struct {
	Hash    string       `json:"hash"`
	Label   string       `json:"label,omitempty"`
	Outputs []outputJSON `json:"outputs"`
}

type outputJSON struct {
	Amount   int64         `json:"amount"`
	Script   string        `json:"script"`
	Receiver *artifactJSON `json:"receiver,omitempty"`
}

type continuationJSON struct {
	Path   string          `json:"path"`
	Schema json.RawMessage `json:"schema,omitempty"`
}

func renderArtifact(c *contract.Compiled) *artifactJSON {
	out := &artifactJSON{
		Address:    c.Address.String(),
		Descriptor: c.Descriptor,
		MinAmount:  int64(c.AmountRange.Min()),
		MaxAmount:  int64(c.AmountRange.Max()),
	}
	for h, t := range c.CTVToTx {
		out.Templates = append(out.Templates, renderTemplate(h.String(), t))
	}
	for h, t := range c.SuggestedTxs {
		out.Suggested = append(out.Suggested, renderTemplate(h.String(), t))
	}
	for path, cp := range c.ContinuationPoints {
		out.Continuations = append(out.Continuations, continuationJSON{
			Path:   path,
			Schema: cp.Schema,
		})
	}
	sort.Slice(out.Templates, func(i, j int) bool { return out.Templates[i].Hash < out.Templates[j].Hash })
	sort.Slice(out.Suggested, func(i, j int) bool { return out.Suggested[i].Hash < out.Suggested[j].Hash })
	sort.Slice(out.Continuations, func(i, j int) bool { return out.Continuations[i].Path < out.Continuations[j].Path })
	return out
}

func renderTemplate(hash string, t *contract.Template) templateJSON {
	tj := templateJSON{Hash: hash, Label: t.Label}
	for _, o := range t.Outputs {
		oj := outputJSON{
			Amount: int64(o.Amount),
			Script: hex.EncodeToString(o.Script),
		}
		if o.Receiver != nil {
			oj.Receiver = renderArtifact(o.Receiver)
		}
		tj.Outputs = append(tj.Outputs, oj)
	}
	return tj
}
