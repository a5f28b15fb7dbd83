package cli

import (
	"errors"
	"testing"
)

func TestParseInvocationArgs(t *testing.T) {
	req, err := parseInvocationArgs([]string{
		"checkSecurityStatus",
		"region=eu-west-1",
		"service=s3,ebs",
		"note=a=b",
	})
	if err != nil {
		t.Fatalf("parseInvocationArgs() error = %v", err)
	}
	if req.OperationID != "checkSecurityStatus" {
		t.Fatalf("operation = %q", req.OperationID)
	}
	if len(req.Parameters) != 3 {
		t.Fatalf("parameters = %v", req.Parameters)
	}
	if req.Parameters[1].Name != "service" || req.Parameters[1].Value != "s3,ebs" {
		t.Fatalf("parameters[1] = %+v", req.Parameters[1])
	}
	// Values may themselves carry '='; only the first one splits.
	if req.Parameters[2].Name != "note" || req.Parameters[2].Value != "a=b" {
		t.Fatalf("parameters[2] = %+v", req.Parameters[2])
	}
}

func TestParseInvocationArgsRejectsMalformedPairs(t *testing.T) {
	for _, bad := range []string{"justaname", "=value", " =x"} {
		_, err := parseInvocationArgs([]string{"op", bad})
		var exitErr *ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("parseInvocationArgs(%q) error = %v, want *ExitError", bad, err)
		}
		if exitErr.Code != exitConfig {
			t.Fatalf("exit code = %d, want %d", exitErr.Code, exitConfig)
		}
	}
}
