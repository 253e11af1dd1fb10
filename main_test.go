package main

import "testing"

func TestParseFlagsOneShotPrompt(t *testing.T) {
	opts, err := parseFlags([]string{"What", "is", "2+2?"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if opts.prompt != "What is 2+2?" {
		t.Errorf("prompt = %q", opts.prompt)
	}
}

func TestParseFlagsHelpAndVersion(t *testing.T) {
	opts, err := parseFlags([]string{"--help"})
	if err != nil || !opts.showHelp {
		t.Errorf("expected showHelp, got %+v err=%v", opts, err)
	}

	opts, err = parseFlags([]string{"-v"})
	if err != nil || !opts.showVersion {
		t.Errorf("expected showVersion, got %+v err=%v", opts, err)
	}
}

func TestParseFlagsConfigWorkspaceModel(t *testing.T) {
	opts, err := parseFlags([]string{"--config", "cclaw.conf", "--workspace", "/tmp/ws", "--model", "claude-3-opus"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if opts.configFile != "cclaw.conf" || opts.workspace != "/tmp/ws" || opts.model != "claude-3-opus" {
		t.Errorf("got %+v", opts)
	}
}

func TestParseFlagsTelegramAndGatewayPort(t *testing.T) {
	opts, err := parseFlags([]string{"--telegram", "--gateway-port", "9001"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if !opts.telegram || opts.gatewayPort != 9001 {
		t.Errorf("got %+v", opts)
	}
}

func TestParseFlagsMissingValueErrors(t *testing.T) {
	if _, err := parseFlags([]string{"--config"}); err == nil {
		t.Error("expected error for missing --config value")
	}
}

func TestParseFlagsBadGatewayPort(t *testing.T) {
	if _, err := parseFlags([]string{"--gateway-port", "not-a-number"}); err == nil {
		t.Error("expected error for non-numeric --gateway-port")
	}
}

func TestParseFlagsUnknownFlag(t *testing.T) {
	if _, err := parseFlags([]string{"--bogus"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}
