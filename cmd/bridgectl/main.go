package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"bridgechain/cmd/internal/passphrase"
	"bridgechain/config"
	"bridgechain/core"
	"bridgechain/core/genesis"
	"bridgechain/crypto"
	"bridgechain/rpc"
	"bridgechain/storage"
)

const (
	defaultPassEnv  = "BRIDGE_KEY_PASS"
	defaultConfig   = "./config.toml"
	defaultTokenTTL = time.Hour
)

type command struct {
	name    string
	summary string
	run     func(args []string, out io.Writer) error
}

var commands = []command{
	{"keygen", "Generate an operator key and write it to an encrypted keystore", runKeygen},
	{"account", "Print the bridge account of a keystore", runAccount},
	{"token", "Mint a bearer token for the RPC API", runToken},
	{"inspect", "Print registry, gate and supply from a stopped node's data directory", runInspect},
	{"genesis-check", "Validate a genesis file", runGenesisCheck},
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(1)
	}
	for _, cmd := range commands {
		if cmd.name == os.Args[1] {
			if err := cmd.run(os.Args[2:], os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}
	usage(os.Stderr)
	os.Exit(1)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: bridgectl <command> [flags]")
	fmt.Fprintln(w)
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-14s %s\n", cmd.name, cmd.summary)
	}
}

func runKeygen(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	keystorePath := fs.String("keystore", "operator.keystore", "Output path for the keystore file")
	passEnv := fs.String("pass-env", defaultPassEnv, "Environment variable containing the keystore passphrase")
	force := fs.Bool("force", false, "Overwrite an existing keystore file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*force {
		if _, err := os.Stat(*keystorePath); err == nil {
			return fmt.Errorf("keystore %s already exists (use -force to overwrite)", *keystorePath)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	pass, err := passphrase.NewSource(*passEnv, "keystore passphrase").Get()
	if err != nil {
		return err
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	if err := crypto.SaveToKeystore(*keystorePath, key, pass); err != nil {
		return fmt.Errorf("write keystore: %w", err)
	}
	fmt.Fprintf(out, "account: %s\nkeystore: %s\n", key.PubKey().Address().String(), *keystorePath)
	return nil
}

func runAccount(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("account", flag.ContinueOnError)
	keystorePath := fs.String("keystore", "operator.keystore", "Keystore file to read")
	passEnv := fs.String("pass-env", defaultPassEnv, "Environment variable containing the keystore passphrase")
	if err := fs.Parse(args); err != nil {
		return err
	}
	account, err := keystoreAccount(*keystorePath, *passEnv)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, crypto.AccountAddress(account).String())
	return nil
}

func keystoreAccount(path, passEnv string) ([20]byte, error) {
	pass, err := passphrase.NewSource(passEnv, "keystore passphrase").Get()
	if err != nil {
		return [20]byte{}, err
	}
	key, err := crypto.LoadFromKeystore(path, pass)
	if err != nil {
		return [20]byte{}, fmt.Errorf("load keystore: %w", err)
	}
	return key.PubKey().Address().Account(), nil
}

func runToken(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfig, "Path to the bridged config file holding the auth secret")
	accountFlag := fs.String("account", "", "Bech32 account to authenticate as")
	keystorePath := fs.String("keystore", "", "Derive the account from this keystore instead of -account")
	passEnv := fs.String("pass-env", defaultPassEnv, "Environment variable containing the keystore passphrase")
	ttl := fs.Duration("ttl", defaultTokenTTL, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	var account [20]byte
	switch {
	case strings.TrimSpace(*keystorePath) != "":
		account, err = keystoreAccount(*keystorePath, *passEnv)
	case strings.TrimSpace(*accountFlag) != "":
		account, err = crypto.ParseAccount(*accountFlag)
	default:
		err = errors.New("one of -account or -keystore is required")
	}
	if err != nil {
		return err
	}
	token, err := rpc.IssueToken(cfg.Auth.HMACSecret, cfg.Auth.Issuer, cfg.Auth.Audience, account, *ttl, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

type inspectReport struct {
	Validators    []string `json:"validators"`
	Operational   bool     `json:"operational"`
	ProposalCount uint32   `json:"proposalCount"`
	TotalSupply   string   `json:"totalSupply"`
}

func runInspect(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfig, "Path to the bridged config file")
	dataDir := fs.String("datadir", "", "Data directory (overrides the config DataDir)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	dir := strings.TrimSpace(*dataDir)
	if dir == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		dir = cfg.DataDir
	}
	db, err := storage.NewLevelDB(dir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	report, err := inspect(db)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func inspect(db storage.Database) (*inspectReport, error) {
	node, err := core.NewNode(db)
	if err != nil {
		return nil, err
	}
	status, err := node.Status()
	if err != nil {
		return nil, err
	}
	validators, err := node.Validators()
	if err != nil {
		return nil, err
	}
	report := &inspectReport{
		Validators:    make([]string, 0, len(validators)),
		Operational:   status.Operational,
		ProposalCount: status.ProposalCount,
		TotalSupply:   status.TotalSupply.String(),
	}
	for _, v := range validators {
		report.Validators = append(report.Validators, crypto.AccountAddress(v).String())
	}
	return report, nil
}

func runGenesisCheck(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("genesis-check", flag.ContinueOnError)
	path := fs.String("genesis", "genesis.json", "Genesis file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	spec, err := genesis.LoadGenesisSpec(*path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "genesis ok: %d validators, %d allocations, operational=%t\n",
		len(spec.ValidatorAccounts()), len(spec.Allocations()), spec.IsOperational())
	return nil
}
