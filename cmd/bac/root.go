package main

import (
	"context"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	acmeclient "github.com/bac-acme/bac/acme/client"
	"github.com/bac-acme/bac/acme/resources"
)

// options holds the global CLI configuration. Environment variables provide
// the defaults and flags override them.
type options struct {
	DirectoryURL string `env:"BAC_DIRECTORY_URL" envDefault:"https://acme-staging-v02.api.letsencrypt.org/directory"`
	CACert       string `env:"BAC_CA_CERT"`
	AccountPath  string `env:"BAC_ACCOUNT" envDefault:"bac-account.json"`
	Contact      string `env:"BAC_CONTACT"`
	Verbose      bool   `env:"BAC_VERBOSE"`
}

func rootCmd() (*cobra.Command, error) {
	opts := &options{}
	if err := env.Parse(opts); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	cmd := &cobra.Command{
		Use:           "bac",
		Short:         "A bare ACME (RFC 8555) client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.DirectoryURL, "directory", opts.DirectoryURL,
		"Directory URL for the ACME server")
	pf.StringVar(&opts.CACert, "ca", opts.CACert,
		"PEM CA certificate(s) for verifying ACME server HTTPS")
	pf.StringVar(&opts.AccountPath, "account", opts.AccountPath,
		"JSON filepath to save/restore the ACME account")
	pf.StringVar(&opts.Contact, "contact", opts.Contact,
		"Contact email address for account registration")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", opts.Verbose,
		"Enable debug logging")

	cmd.AddCommand(
		directoryCmd(opts),
		registerCmd(opts),
		issueCmd(opts),
		ariCmd(opts),
	)
	return cmd, nil
}

func (o *options) logger() (*zap.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	level := zapcore.InfoLevel
	if o.Verbose {
		level = zapcore.DebugLevel
	}
	return zap.Config{
		Encoding:         "console",
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    encoderConfig,
	}.Build()
}

func (o *options) client() (*acmeclient.Client, *zap.Logger, error) {
	log, err := o.logger()
	if err != nil {
		return nil, nil, err
	}

	c, err := acmeclient.NewClient(acmeclient.ClientConfig{
		DirectoryURL: o.DirectoryURL,
		CACert:       o.CACert,
		Logger:       log,
	})
	if err != nil {
		return nil, nil, err
	}
	return c, log, nil
}

// account restores a previously registered account from the account path, or
// registers a fresh one and saves it. The returned nonce (possibly empty) can
// seed the next signed operation.
func (o *options) account(ctx context.Context, c *acmeclient.Client) (*resources.Account, string, error) {
	if _, err := os.Stat(o.AccountPath); err == nil {
		acct, err := resources.RestoreAccount(o.AccountPath)
		if err != nil {
			return nil, "", fmt.Errorf("restoring account from %q: %w", o.AccountPath, err)
		}
		if acct.ID != "" {
			return acct, "", nil
		}
	}

	var emails []string
	if o.Contact != "" {
		emails = []string{o.Contact}
	}
	acct, err := resources.NewAccount(emails, nil)
	if err != nil {
		return nil, "", err
	}

	result := c.CreateAccount(ctx, acct, "")
	if !result.OK() {
		return nil, "", result.Err
	}

	if err := resources.SaveAccount(o.AccountPath, acct); err != nil {
		return nil, "", fmt.Errorf("saving account to %q: %w", o.AccountPath, err)
	}
	return acct, result.Nonce, nil
}
