package bridge

// DefaultSignatures is the production operation table for the security tool
// gateway: six operations, each renamed to its downstream tool identifier
// with the alias, default, and aggregation rules the gateway expects
// (camelCase inbound names map to snake_case arguments, and singular
// "service" aggregates into the plural "services" array).
func DefaultSignatures() map[string]ToolSignature {
	return map[string]ToolSignature{
		"checkSecurityStatus": {
			ToolID: "SecurityMCPTools___CheckSecurityServices",
			Parameters: []ParameterSpec{
				{CanonicalName: "region", Type: TypeString, Default: "us-east-1"},
				{
					CanonicalName: "services",
					Aliases:       []string{"service"},
					Type:          TypeStringArray,
					MultiValued:   true,
					Default:       []string{"guardduty", "inspector", "accessanalyzer", "securityhub", "trustedadvisor", "macie"},
				},
				{CanonicalName: "account_id", Aliases: []string{"accountId"}, Type: TypeString},
				{CanonicalName: "aws_profile", Aliases: []string{"awsProfile"}, Type: TypeString, Default: "default"},
				{CanonicalName: "store_in_context", Aliases: []string{"storeInContext"}, Type: TypeBoolean, Default: true},
				{CanonicalName: "debug", Type: TypeBoolean, Default: true},
			},
		},
		"getSecurityFindings": {
			ToolID: "SecurityMCPTools___GetSecurityFindings",
			Parameters: []ParameterSpec{
				{CanonicalName: "region", Type: TypeString, Default: "us-east-1"},
				{CanonicalName: "service", Type: TypeString, Required: true},
				{CanonicalName: "max_findings", Aliases: []string{"maxFindings"}, Type: TypeInteger, Default: 100},
				{CanonicalName: "severity_filter", Aliases: []string{"severityFilter", "severity"}, Type: TypeString},
				{CanonicalName: "aws_profile", Aliases: []string{"awsProfile"}, Type: TypeString, Default: "default"},
				{CanonicalName: "check_enabled", Aliases: []string{"checkEnabled"}, Type: TypeBoolean, Default: true},
			},
		},
		"checkStorageEncryption": {
			ToolID: "SecurityMCPTools___CheckStorageEncryption",
			Parameters: []ParameterSpec{
				{CanonicalName: "region", Type: TypeString, Default: "us-east-1"},
				{
					CanonicalName: "services",
					Aliases:       []string{"service"},
					Type:          TypeStringArray,
					MultiValued:   true,
					Default:       []string{"s3", "ebs", "rds", "dynamodb", "efs", "elasticache"},
				},
				{
					CanonicalName: "include_unencrypted_only",
					Aliases:       []string{"includeUnencryptedOnly", "unencryptedOnly"},
					Type:          TypeBoolean,
					Default:       false,
				},
				{CanonicalName: "aws_profile", Aliases: []string{"awsProfile"}, Type: TypeString, Default: "default"},
				{CanonicalName: "store_in_context", Aliases: []string{"storeInContext"}, Type: TypeBoolean, Default: true},
			},
		},
		"checkNetworkSecurity": {
			ToolID: "SecurityMCPTools___CheckNetworkSecurity",
			Parameters: []ParameterSpec{
				{CanonicalName: "region", Type: TypeString, Default: "us-east-1"},
				{
					CanonicalName: "services",
					Aliases:       []string{"service"},
					Type:          TypeStringArray,
					MultiValued:   true,
					Default:       []string{"elb", "vpc", "apigateway", "cloudfront"},
				},
				{
					CanonicalName: "include_non_compliant_only",
					Aliases:       []string{"includeNonCompliantOnly", "nonCompliantOnly"},
					Type:          TypeBoolean,
					Default:       false,
				},
				{CanonicalName: "aws_profile", Aliases: []string{"awsProfile"}, Type: TypeString, Default: "default"},
				{CanonicalName: "store_in_context", Aliases: []string{"storeInContext"}, Type: TypeBoolean, Default: true},
			},
		},
		"listServicesInRegion": {
			ToolID: "SecurityMCPTools___ListServicesInRegion",
			Parameters: []ParameterSpec{
				{CanonicalName: "region", Type: TypeString, Default: "us-east-1"},
				{CanonicalName: "aws_profile", Aliases: []string{"awsProfile"}, Type: TypeString, Default: "default"},
				{CanonicalName: "store_in_context", Aliases: []string{"storeInContext"}, Type: TypeBoolean, Default: true},
			},
		},
		"getStoredContext": {
			ToolID: "SecurityMCPTools___GetStoredSecurityContext",
			Parameters: []ParameterSpec{
				{CanonicalName: "region", Type: TypeString, Default: "us-east-1"},
				{CanonicalName: "detailed", Type: TypeBoolean, Default: false},
			},
		},
	}
}

// NewDefaultRegistry builds the registry for the default operation table.
func NewDefaultRegistry() (*Registry, error) {
	return NewRegistry(DefaultSignatures())
}
