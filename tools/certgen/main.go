// Command certgen writes a development CA and a server certificate for
// serving the inventory API over HTTPS.
//
// Output files in -dir: ca.crt, ca.key, server.crt, server.key. An existing
// CA in -dir is reused so clients that already trust it keep working.
// Point the server at them with TLS_CERT_FILE and TLS_KEY_FILE, and the
// client with -ca.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atinyakov/cerevyn/internal/certgen"
)

const (
	caName        = "Cerevyn Dev CA"
	caValidity    = 10 * 365 * 24 * time.Hour
	defaultHosts  = "localhost,127.0.0.1"
	defaultOutDir = "certs"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fset := flag.NewFlagSet("certgen", flag.ContinueOnError)
	dir := fset.String("dir", defaultOutDir, "output directory")
	hosts := fset.String("hosts", defaultHosts, "comma-separated DNS names and IPs for the server certificate")
	days := fset.Int("days", 365, "server certificate validity in days")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if *days <= 0 {
		return errors.New("-days must be positive")
	}

	caCert := filepath.Join(*dir, "ca.crt")
	caKey := filepath.Join(*dir, "ca.key")

	ca, err := certgen.LoadCA(caCert, caKey)
	switch {
	case err == nil:
		fmt.Fprintf(out, "Reusing CA from %s\n", caCert)
	case errors.Is(err, fs.ErrNotExist):
		ca, err = certgen.GenerateCA(caName, caValidity)
		if err != nil {
			return err
		}
		keyPEM, err := ca.KeyPEM()
		if err != nil {
			return err
		}
		if err := certgen.WriteFile(caCert, ca.CertPEM(), 0o644); err != nil {
			return err
		}
		if err := certgen.WriteFile(caKey, keyPEM, 0o600); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote CA to %s\n", caCert)
	default:
		return err
	}

	certPEM, keyPEM, err := ca.GenerateServerCertificate(splitHosts(*hosts), time.Duration(*days)*24*time.Hour)
	if err != nil {
		return err
	}
	serverCert := filepath.Join(*dir, "server.crt")
	serverKey := filepath.Join(*dir, "server.key")
	if err := certgen.WriteFile(serverCert, certPEM, 0o644); err != nil {
		return err
	}
	if err := certgen.WriteFile(serverKey, keyPEM, 0o600); err != nil {
		return err
	}

	fmt.Fprintf(out, "Wrote server certificate to %s\n\n", serverCert)
	fmt.Fprintf(out, "  TLS_CERT_FILE=%s TLS_KEY_FILE=%s ./server\n", serverCert, serverKey)
	fmt.Fprintf(out, "  ./client -url https://localhost:8443 -ca %s\n", caCert)
	return nil
}

func splitHosts(s string) []string {
	var hosts []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
