package picker

import (
	"reflect"
	"testing"
)

func TestBuildSSHCommandUserAndAddr(t *testing.T) {
	cfg := DefaultConfig()
	p := Peer{Hostname: "web1", Addr: "100.64.0.1"}

	got := BuildSSHCommand(cfg, p, "alice")
	want := []string{"ssh", "alice@100.64.0.1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("argv = %v, want %v", got, want)
	}
}

func TestBuildSSHCommandNoUser(t *testing.T) {
	cfg := DefaultConfig()
	p := Peer{Hostname: "web1", Addr: "100.64.0.1"}

	got := BuildSSHCommand(cfg, p, "  ")
	want := []string{"ssh", "100.64.0.1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("argv = %v, want %v", got, want)
	}
}

func TestBuildSSHCommandExtraArgsBeforeDest(t *testing.T) {
	cfg := DefaultConfig()
	p := Peer{Hostname: "web1", Addr: "100.64.0.1"}

	got := BuildSSHCommand(cfg, p, "alice", "-p", "2222", "-A")
	want := []string{"ssh", "-p", "2222", "-A", "alice@100.64.0.1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("argv = %v, want %v", got, want)
	}
}

func TestBuildSSHCommandHonorsConfiguredBinary(t *testing.T) {
	cfg := &Config{SSHCommand: "/opt/ssh/bin/ssh"}
	p := Peer{Hostname: "web1", Addr: "fd7a:115c:a1e0::1"}

	got := BuildSSHCommand(cfg, p, "root")
	want := []string{"/opt/ssh/bin/ssh", "root@fd7a:115c:a1e0::1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("argv = %v, want %v", got, want)
	}
}
