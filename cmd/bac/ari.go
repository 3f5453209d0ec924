package main

import (
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bac-acme/bac/acme/codec"
	"github.com/bac-acme/bac/acme/resources"
)

func ariCmd(opts *options) *cobra.Command {
	var certPath string

	cmd := &cobra.Command{
		Use:   "ari [aki-hex serial-hex]",
		Short: "Fetch the suggested renewal window for a certificate",
		Long: `Fetch the ACME Renewal Information (ARI) resource for a certificate.

The certificate is identified either by the hex encodings of its Authority
Key Identifier and serial number, or by a PEM certificate file passed with
--cert.`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var akiHex, serialHex string
			switch {
			case len(args) == 2:
				akiHex, serialHex = args[0], args[1]
			case len(args) == 0 && certPath != "":
				var err error
				akiHex, serialHex, err = certIdentifiers(certPath)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("provide aki-hex and serial-hex arguments, or --cert")
			}

			c, _, err := opts.client()
			if err != nil {
				return err
			}

			var info resources.RenewalInfo
			result := c.RenewalInfo(cmd.Context(), akiHex, serialHex, &info)
			if !result.OK() {
				return result.Err
			}

			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&certPath, "cert", "",
		"PEM certificate file to read the identifiers from")
	return cmd
}

// certIdentifiers extracts the hex encoded Authority Key Identifier and
// serial number from a PEM certificate file.
func certIdentifiers(path string) (string, string, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}

	block, _ := pem.Decode(pemBytes)
	if block == nil || block.Type != "CERTIFICATE" {
		return "", "", fmt.Errorf("%q does not hold a PEM certificate", path)
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return "", "", err
	}
	if len(cert.AuthorityKeyId) == 0 {
		return "", "", fmt.Errorf("certificate in %q has no authority key identifier", path)
	}

	return codec.BytesToHex(cert.AuthorityKeyId),
		codec.BytesToHex(cert.SerialNumber.Bytes()),
		nil
}
