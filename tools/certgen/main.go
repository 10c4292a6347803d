// Package main writes a self-signed server certificate and key for serving
// the API over HTTPS in development. Pass the results to the server with
// -cert and -key.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atinyakov/ItemKeeper/internal/certgen"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("certgen", flag.ContinueOnError)
	fs.SetOutput(out)
	dir := fs.String("dir", "certs", "output directory")
	hosts := fs.String("hosts", "localhost,127.0.0.1", "comma-separated DNS names and IP addresses")
	days := fs.Int("days", 365, "validity in days")
	if err := fs.Parse(args); err != nil {
		return err
	}

	certPEM, keyPEM, err := certgen.GenerateServerCertificate(
		strings.Split(*hosts, ","), time.Now(), time.Duration(*days)*24*time.Hour)
	if err != nil {
		return err
	}

	certPath := filepath.Join(*dir, "server.crt")
	keyPath := filepath.Join(*dir, "server.key")
	if err := certgen.WriteFiles(certPath, keyPath, certPEM, keyPEM); err != nil {
		return err
	}
	fmt.Fprintf(out, "Certificate written to %s, key to %s\n", certPath, keyPath)
	return nil
}
