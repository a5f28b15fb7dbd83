package bridge

import (
	"reflect"
	"testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := NewDefaultRegistry()
	if err != nil {
		t.Fatalf("NewDefaultRegistry() error = %v", err)
	}
	return registry
}

func TestMapParametersRenamesAliasesAndSplitsMultiValues(t *testing.T) {
	registry := newTestRegistry(t)

	args, err := MapParameters(registry, InvocationRequest{
		OperationID: "checkStorageEncryption",
		Parameters: []RawParameter{
			{Name: "region", Value: "eu-west-1"},
			{Name: "service", Value: "s3, ebs,rds"},
			{Name: "includeUnencryptedOnly", Value: "true"},
		},
	})
	if err != nil {
		t.Fatalf("MapParameters() error = %v", err)
	}
	if args.ToolID != "SecurityMCPTools___CheckStorageEncryption" {
		t.Fatalf("ToolID = %q", args.ToolID)
	}
	if got := args.Arguments["region"]; got != "eu-west-1" {
		t.Fatalf("region = %v, want eu-west-1", got)
	}
	want := []string{"s3", "ebs", "rds"}
	if got := args.Arguments["services"]; !reflect.DeepEqual(got, want) {
		t.Fatalf("services = %v, want %v", got, want)
	}
	if got := args.Arguments["include_unencrypted_only"]; got != true {
		t.Fatalf("include_unencrypted_only = %v, want true", got)
	}
}

func TestMapParametersAppliesDefaultsWhenOmitted(t *testing.T) {
	registry := newTestRegistry(t)

	args, err := MapParameters(registry, InvocationRequest{
		OperationID: "listServicesInRegion",
	})
	if err != nil {
		t.Fatalf("MapParameters() error = %v", err)
	}
	if got := args.Arguments["region"]; got != "us-east-1" {
		t.Fatalf("region default = %v, want us-east-1", got)
	}
	if got := args.Arguments["aws_profile"]; got != "default" {
		t.Fatalf("aws_profile default = %v, want default", got)
	}
	if got := args.Arguments["store_in_context"]; got != true {
		t.Fatalf("store_in_context default = %v, want true", got)
	}
}

func TestMapParametersSuppliedValueOverridesDefault(t *testing.T) {
	registry := newTestRegistry(t)

	args, err := MapParameters(registry, InvocationRequest{
		OperationID: "getSecurityFindings",
		Parameters: []RawParameter{
			{Name: "service", Value: "guardduty"},
			{Name: "maxFindings", Value: "25"},
		},
	})
	if err != nil {
		t.Fatalf("MapParameters() error = %v", err)
	}
	if got := args.Arguments["max_findings"]; got != int64(25) {
		t.Fatalf("max_findings = %v (%T), want int64(25)", got, got)
	}
}

func TestMapParametersUnknownOperation(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := MapParameters(registry, InvocationRequest{OperationID: "launchMissiles"})
	if KindOf(err) != KindUnknownOperation {
		t.Fatalf("kind = %v, want %v", KindOf(err), KindUnknownOperation)
	}
}

func TestMapParametersUnknownParameterFailsClosed(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := MapParameters(registry, InvocationRequest{
		OperationID: "getStoredContext",
		Parameters: []RawParameter{
			{Name: "verbosity", Value: "high"},
		},
	})
	if KindOf(err) != KindUnknownParameter {
		t.Fatalf("kind = %v, want %v", KindOf(err), KindUnknownParameter)
	}
}

func TestMapParametersMissingRequired(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := MapParameters(registry, InvocationRequest{
		OperationID: "getSecurityFindings",
	})
	if KindOf(err) != KindMissingRequired {
		t.Fatalf("kind = %v, want %v", KindOf(err), KindMissingRequired)
	}
}

func TestCoerceValueTable(t *testing.T) {
	tests := []struct {
		name    string
		spec    ParameterSpec
		value   string
		want    any
		wantErr bool
	}{
		{
			name:  "string passthrough",
			spec:  ParameterSpec{CanonicalName: "region", Type: TypeString},
			value: "us-east-1",
			want:  "us-east-1",
		},
		{
			name:  "integer",
			spec:  ParameterSpec{CanonicalName: "max_findings", Type: TypeInteger},
			value: "100",
			want:  int64(100),
		},
		{
			name:    "integer rejects non-numeric",
			spec:    ParameterSpec{CanonicalName: "max_findings", Type: TypeInteger},
			value:   "lots",
			wantErr: true,
		},
		{
			name:  "boolean yes",
			spec:  ParameterSpec{CanonicalName: "debug", Type: TypeBoolean},
			value: "yes",
			want:  true,
		},
		{
			name:  "boolean mixed case",
			spec:  ParameterSpec{CanonicalName: "debug", Type: TypeBoolean},
			value: "False",
			want:  false,
		},
		{
			name:    "boolean rejects other text",
			spec:    ParameterSpec{CanonicalName: "debug", Type: TypeBoolean},
			value:   "maybe",
			wantErr: true,
		},
		{
			name:  "single value array",
			spec:  ParameterSpec{CanonicalName: "services", Type: TypeStringArray, MultiValued: true},
			value: "s3",
			want:  []string{"s3"},
		},
		{
			name:  "comma kept when not multi-valued",
			spec:  ParameterSpec{CanonicalName: "services", Type: TypeStringArray},
			value: "s3,ebs",
			want:  []string{"s3,ebs"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerceValue(tt.spec, tt.value)
			if tt.wantErr {
				if KindOf(err) != KindTypeCoercionFailed {
					t.Fatalf("kind = %v, want %v", KindOf(err), KindTypeCoercionFailed)
				}
				return
			}
			if err != nil {
				t.Fatalf("coerceValue() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("coerceValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapParametersCanonicalNameWinsOverAlias(t *testing.T) {
	registry, err := NewRegistry(map[string]ToolSignature{
		"demo": {
			ToolID: "Demo___Tool",
			Parameters: []ParameterSpec{
				{CanonicalName: "target", Type: TypeString},
				{CanonicalName: "other", Aliases: []string{"target_alias"}, Type: TypeString},
			},
		},
	})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	args, err := MapParameters(registry, InvocationRequest{
		OperationID: "demo",
		Parameters: []RawParameter{
			{Name: "target", Value: "a"},
			{Name: "target_alias", Value: "b"},
		},
	})
	if err != nil {
		t.Fatalf("MapParameters() error = %v", err)
	}
	if got := args.Arguments["target"]; got != "a" {
		t.Fatalf("target = %v, want a", got)
	}
	if got := args.Arguments["other"]; got != "b" {
		t.Fatalf("other = %v, want b", got)
	}
}

func TestMapParametersIsDeterministic(t *testing.T) {
	registry := newTestRegistry(t)
	req := InvocationRequest{
		OperationID: "checkSecurityStatus",
		Parameters: []RawParameter{
			{Name: "service", Value: "guardduty,macie"},
			{Name: "storeInContext", Value: "no"},
		},
	}

	first, err := MapParameters(registry, req)
	if err != nil {
		t.Fatalf("MapParameters() error = %v", err)
	}
	second, err := MapParameters(registry, req)
	if err != nil {
		t.Fatalf("MapParameters() second call error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated mapping differs: %v vs %v", first, second)
	}
}

func TestMapParametersDoesNotMutateRegistryDefaults(t *testing.T) {
	registry := newTestRegistry(t)

	args, err := MapParameters(registry, InvocationRequest{OperationID: "checkNetworkSecurity"})
	if err != nil {
		t.Fatalf("MapParameters() error = %v", err)
	}
	services := args.Arguments["services"].([]string)
	services[0] = "mutated"

	again, err := MapParameters(registry, InvocationRequest{OperationID: "checkNetworkSecurity"})
	if err != nil {
		t.Fatalf("MapParameters() error = %v", err)
	}
	if got := again.Arguments["services"].([]string)[0]; got != "elb" {
		t.Fatalf("registry default mutated through returned slice: %q", got)
	}
}
