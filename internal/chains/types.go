package chains

type RPC struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	URL  string `json:"url" yaml:"url" mapstructure:"url"`
}

// NetworkRPCs lists the endpoints configured for one network id.
type NetworkRPCs struct {
	RPCs []RPC `json:"rpcs" yaml:"rpcs" mapstructure:"rpcs"`
}

type ChainConfig struct {
	Networks                                           map[string]NetworkRPCs
	PreferredRPCName                                   string
	DurationBetweenGetLatestHeaderRequestsMilliseconds int
}
