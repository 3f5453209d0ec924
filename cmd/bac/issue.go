package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	acmeclient "github.com/bac-acme/bac/acme/client"
	"github.com/bac-acme/bac/acme/keys"
	"github.com/bac-acme/bac/acme/resources"
)

func issueCmd(opts *options) *cobra.Command {
	var (
		challengeType string
		commonName    string
		certOut       string
		keyOut        string
		pollInterval  time.Duration
		pollTimeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue domain [domain ...]",
		Short: "Order, finalize and download a certificate",
		Long: `Order a certificate for the given domains.

The chosen challenge's key authorization is logged before validation is
initiated; the operator must have provisioned the challenge response
(HTTP file, DNS record or TLS certificate) ahead of time, bac does not
serve it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIssue(cmd.Context(), opts, args, issueOptions{
				challengeType: challengeType,
				commonName:    commonName,
				certOut:       certOut,
				keyOut:        keyOut,
				pollInterval:  pollInterval,
				pollTimeout:   pollTimeout,
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&challengeType, "challenge", "http-01",
		"Challenge type to initiate (http-01, dns-01 or tls-alpn-01)")
	f.StringVar(&commonName, "cn", "",
		"Common name for the CSR (defaults to the first domain)")
	f.StringVar(&certOut, "cert-out", "cert.pem",
		"File to write the PEM certificate chain to")
	f.StringVar(&keyOut, "key-out", "cert.key",
		"File to write the PEM certificate private key to")
	f.DurationVar(&pollInterval, "poll-interval", 2*time.Second,
		"Delay between status polls")
	f.DurationVar(&pollTimeout, "poll-timeout", 2*time.Minute,
		"Give up polling a resource after this long")
	return cmd
}

type issueOptions struct {
	challengeType string
	commonName    string
	certOut       string
	keyOut        string
	pollInterval  time.Duration
	pollTimeout   time.Duration
}

func runIssue(ctx context.Context, opts *options, domains []string, issue issueOptions) error {
	c, log, err := opts.client()
	if err != nil {
		return err
	}

	acct, nonce, err := opts.account(ctx, c)
	if err != nil {
		return err
	}

	order := &resources.Order{}
	for _, domain := range domains {
		order.Identifiers = append(order.Identifiers,
			resources.Identifier{Type: "dns", Value: domain})
	}

	result := c.CreateOrder(ctx, acct, order, nonce)
	if !result.OK() {
		return result.Err
	}
	nonce = result.Nonce

	for _, authzURL := range order.Authorizations {
		authz := &resources.Authorization{ID: authzURL}
		result = c.GetAuthorization(ctx, acct, authz, nonce)
		if !result.OK() {
			return result.Err
		}
		nonce = result.Nonce

		if authz.Status == "valid" {
			continue
		}

		chall, err := pickChallenge(authz, issue.challengeType)
		if err != nil {
			return err
		}
		log.Info("initiating challenge, its response must already be provisioned",
			zap.String("identifier", authz.Identifier.Value),
			zap.String("type", chall.Type),
			zap.String("token", chall.Token),
			zap.String("keyAuthorization", keys.KeyAuth(acct.Signer, chall.Token)))

		result = c.InitiateChallenge(ctx, acct, chall, nonce)
		if !result.OK() {
			return result.Err
		}
		nonce = result.Nonce

		err = pollUntil(ctx, issue.pollInterval, issue.pollTimeout, func(ctx context.Context) (bool, error) {
			result := c.GetAuthorization(ctx, acct, authz, nonce)
			if !result.OK() {
				return false, result.Err
			}
			nonce = result.Nonce

			switch authz.Status {
			case "valid":
				return true, nil
			case "pending":
				return false, nil
			default:
				return false, fmt.Errorf("authorization %s became %q", authz.ID, authz.Status)
			}
		})
		if err != nil {
			return err
		}
	}

	// The certificate keypair must differ from the account keypair
	// (RFC 8555 §11.1).
	certKey, err := keys.NewSigner("ecdsa")
	if err != nil {
		return err
	}

	b64CSR, _, err := acmeclient.CSR(issue.commonName, domains, certKey)
	if err != nil {
		return err
	}

	err = pollUntil(ctx, issue.pollInterval, issue.pollTimeout, func(ctx context.Context) (bool, error) {
		result := c.GetOrder(ctx, acct, order, nonce)
		if !result.OK() {
			return false, result.Err
		}
		nonce = result.Nonce

		switch order.Status {
		case "ready", "valid":
			return true, nil
		case "pending":
			return false, nil
		default:
			return false, fmt.Errorf("order %s became %q", order.ID, order.Status)
		}
	})
	if err != nil {
		return err
	}

	if order.Status == "ready" {
		result = c.FinalizeOrder(ctx, acct, order, b64CSR, nonce)
		if !result.OK() {
			return result.Err
		}
		nonce = result.Nonce
	}

	err = pollUntil(ctx, issue.pollInterval, issue.pollTimeout, func(ctx context.Context) (bool, error) {
		if order.Status == "valid" {
			return true, nil
		}

		result := c.GetOrder(ctx, acct, order, nonce)
		if !result.OK() {
			return false, result.Err
		}
		nonce = result.Nonce

		switch order.Status {
		case "valid":
			return true, nil
		case "ready", "processing":
			return false, nil
		default:
			return false, fmt.Errorf("order %s became %q", order.ID, order.Status)
		}
	})
	if err != nil {
		return err
	}

	if order.Certificate == "" {
		return fmt.Errorf("order %s is valid but has no certificate URL", order.ID)
	}

	result = c.GetCertificate(ctx, acct, order.Certificate, nonce)
	if !result.OK() {
		return result.Err
	}

	keyPEM, err := keys.SignerToPEM(certKey)
	if err != nil {
		return err
	}
	if err := os.WriteFile(issue.keyOut, []byte(keyPEM), 0o600); err != nil {
		return err
	}
	if err := os.WriteFile(issue.certOut, result.Body, 0o644); err != nil {
		return err
	}

	log.Info("certificate issued",
		zap.Strings("domains", domains),
		zap.String("certificate", issue.certOut),
		zap.String("key", issue.keyOut))
	return nil
}

func pickChallenge(authz *resources.Authorization, challengeType string) (*resources.Challenge, error) {
	for i := range authz.Challenges {
		if authz.Challenges[i].Type == challengeType {
			return &authz.Challenges[i], nil
		}
	}
	return nil, fmt.Errorf("authorization %s offers no %q challenge",
		authz.ID, challengeType)
}

// pollUntil calls poll every interval until it reports done, fails, or the
// timeout elapses.
func pollUntil(ctx context.Context, interval, timeout time.Duration, poll func(context.Context) (bool, error)) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := poll(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
