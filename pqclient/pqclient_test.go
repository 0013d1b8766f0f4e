package pqclient

import "testing"

func TestParseURL(t *testing.T) {
	host, port, db, err := parseURL("postgresql://remote-a:5432/db1")
	if err != nil {
		t.Fatalf("parseURL: %v", err)
	}
	if host != "remote-a" || port != "5432" || db != "db1" {
		t.Fatalf("got host=%q port=%q db=%q", host, port, db)
	}
}

func TestParseURLRejectsNonPostgres(t *testing.T) {
	if _, _, _, err := parseURL("mysql://remote-a:5432/db1"); err == nil {
		t.Fatal("expected error for non-postgresql scheme")
	}
}

func TestParseURLRejectsMissingPort(t *testing.T) {
	if _, _, _, err := parseURL("postgresql://remote-a/db1"); err == nil {
		t.Fatal("expected error for missing port")
	}
}

func TestParseURLRejectsMissingDatabase(t *testing.T) {
	if _, _, _, err := parseURL("postgresql://remote-a:5432"); err == nil {
		t.Fatal("expected error for missing database")
	}
}

func TestDialerCredentialsDefault(t *testing.T) {
	d := NewDialer()
	extra, err := d.opts.Credentials("h", "5432", "db")
	if err != nil {
		t.Fatalf("default credentials: %v", err)
	}
	if extra != "sslmode=disable" {
		t.Fatalf("unexpected default dsn extra: %q", extra)
	}
}
