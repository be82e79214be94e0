package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"syscall"

	"golang.org/x/term"

	"tailssh/pkg/picker"
)

var (
	flagConfig       string
	flagHost         string
	flagExecReplace  bool
	flagList         bool
	flagInitialQuery string
	flagMaxResults   int
	flagPrintConfig  bool
	flagDryRun       bool
	flagNoRemember   bool
)

func init() {
	flag.StringVar(&flagConfig, "config", "", "Path to YAML config (defaults to XDG paths if empty)")
	flag.StringVar(&flagHost, "host", "", "Connect directly to a peer by hostname, skipping the selector")
	flag.BoolVar(&flagExecReplace, "exec-replace", false, "Replace this process with ssh")
	flag.BoolVar(&flagList, "list", false, "List peers and exit")
	flag.StringVar(&flagInitialQuery, "query", "", "Initial query for the selector")
	flag.IntVar(&flagMaxResults, "max", 0, "Max visible results in the selector (0 = config default)")
	flag.BoolVar(&flagPrintConfig, "print-config-path", false, "Print resolved config path(s) and exit")
	flag.BoolVar(&flagDryRun, "dry-run", false, "Print the ssh command and exit")
	flag.BoolVar(&flagNoRemember, "no-remember", false, "Do not persist the chosen username as the default")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "tailssh\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  tailssh [options]\n")
		fmt.Fprintf(os.Stderr, "  tailssh --host <hostname> [-- <extra ssh args...>]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  tailssh
  tailssh --query web
  tailssh --host web1 -- -p 2222
  tailssh --list
`)
	}
}

func main() {
	flag.Parse()
	sshArgs := flag.Args()

	cfg, cfgPath, cfgErr := picker.LoadConfig(flagConfig)
	if cfgErr != nil {
		// A missing config is fine; everything has built-in defaults. Any
		// other load error (bad YAML, failed validation) is fatal.
		if !errors.Is(cfgErr, picker.ErrConfigNotFound) {
			fmt.Fprintf(os.Stderr, "tailssh: %v\n", cfgErr)
			os.Exit(1)
		}
		cfg = picker.DefaultConfig()
		cfgPath = ""
	}

	if flagPrintConfig {
		if cfgPath == "" {
			for _, p := range picker.ConfigPathCandidates("") {
				fmt.Println(p)
			}
		} else {
			fmt.Println(cfgPath)
		}
		return
	}

	peers, err := picker.FetchPeers(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tailssh: %v\n", err)
		os.Exit(1)
	}

	if flagList {
		if len(peers) == 0 {
			fmt.Println("(no peers found)")
			return
		}
		for _, p := range peers {
			fmt.Println(picker.FormatPeerLine(p))
		}
		return
	}

	statePath, _ := picker.DefaultStatePath()
	st, stErr := picker.LoadState(statePath)
	if stErr != nil {
		// Corrupt state is not fatal; start fresh and warn.
		fmt.Fprintf(os.Stderr, "tailssh: ignoring unreadable state: %v\n", stErr)
		st = &picker.State{Version: 1}
	}

	if flagHost != "" {
		if err := runDirectConnect(cfg, st, statePath, peers, flagHost, sshArgs); err != nil {
			fmt.Fprintf(os.Stderr, "tailssh: %v\n", err)
			os.Exit(exitCodeFromErr(err))
		}
		return
	}

	// Selector mode needs a real terminal.
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "tailssh: interactive mode requires a terminal (try --host or --list)")
		os.Exit(1)
	}

	res, err := picker.RunTUI(peers, cfg, st, picker.UIOptions{
		InitialQuery: flagInitialQuery,
		MaxResults:   flagMaxResults,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "tailssh: %v\n", err)
		os.Exit(1)
	}
	if res.Cancelled {
		// Quiet exit on cancel, like fzf.
		os.Exit(130)
	}

	if err := connectAndRemember(cfg, st, statePath, res.Peer, res.Username, sshArgs); err != nil {
		fmt.Fprintf(os.Stderr, "tailssh: %v\n", err)
		os.Exit(exitCodeFromErr(err))
	}
}

// runDirectConnect resolves --host against the peer list by exact hostname
// (case-insensitive) and connects without showing the selector. The username
// follows the same default chain the selector uses.
func runDirectConnect(cfg *picker.Config, st *picker.State, statePath string, peers []picker.Peer, host string, sshArgs []string) error {
	host = strings.TrimSpace(host)
	if host == "" {
		return errors.New("empty host")
	}

	var match *picker.Peer
	for i := range peers {
		if strings.EqualFold(peers[i].Hostname, host) {
			match = &peers[i]
			break
		}
	}
	if match == nil {
		return fmt.Errorf("no peer named %q (try --list)", host)
	}

	username := st.DefaultUsername
	if username == "" {
		username = cfg.DefaultUser
	}

	return connectAndRemember(cfg, st, statePath, *match, username, sshArgs)
}

// connectAndRemember launches ssh and, when the session ends cleanly,
// persists the username as the new default. With --exec-replace the exit
// status is unobservable, so the preference is written before the exec.
func connectAndRemember(cfg *picker.Config, st *picker.State, statePath string, p picker.Peer, username string, sshArgs []string) error {
	argv := picker.BuildSSHCommand(cfg, p, username, sshArgs...)
	if flagDryRun {
		fmt.Println(shellQuoteCmd(argv))
		return nil
	}

	opts := picker.ConnectOptions{
		ExecReplace: flagExecReplace,
		LogSessions: cfg.LogSessions,
	}

	if flagExecReplace {
		rememberUsername(st, statePath, username)
		return picker.Connect(cfg, p, username, opts, sshArgs...)
	}

	err := picker.Connect(cfg, p, username, opts, sshArgs...)
	if err == nil {
		rememberUsername(st, statePath, username)
	}
	return err
}

func rememberUsername(st *picker.State, statePath string, username string) {
	username = strings.TrimSpace(username)
	if flagNoRemember || username == "" || st == nil {
		return
	}
	if st.DefaultUsername == username {
		return
	}
	st.DefaultUsername = username
	if err := picker.SaveState(statePath, st); err != nil {
		fmt.Fprintf(os.Stderr, "tailssh: could not save preferences: %v\n", err)
	}
}

func shellQuoteCmd(argv []string) string {
	quoted := make([]string, 0, len(argv))
	for _, a := range argv {
		if a == "" {
			quoted = append(quoted, "''")
			continue
		}
		// Quote arguments with characters that are special in sh.
		if regexp.MustCompile(`[^\w@%+=:,./-]`).MatchString(a) {
			quoted = append(quoted, "'"+strings.ReplaceAll(a, "'", `'\''`)+"'")
		} else {
			quoted = append(quoted, a)
		}
	}
	return strings.Join(quoted, " ")
}

func exitCodeFromErr(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if status, ok := ee.Sys().(syscall.WaitStatus); ok {
			return status.ExitStatus()
		}
	}
	return 1
}
