package config

import (
	"github.com/spf13/viper"

	"github.com/gostrata/searchstack/logging"
)

// Config represents search backend configuration
type Config struct {
	IndexName              string          `yaml:"index_name" json:"index_name"`
	SilentlyFail           bool            `yaml:"silently_fail" json:"silently_fail"`
	DefaultOperator        string          `yaml:"default_operator" json:"default_operator"`
	Fuzziness              string          `yaml:"fuzziness" json:"fuzziness"`
	LimitToRegisteredTypes bool            `yaml:"limit_to_registered_types" json:"limit_to_registered_types"`
	BatchSize              int             `yaml:"batch_size" json:"batch_size"`
	ScrollKeepAlive        string          `yaml:"scroll_keep_alive" json:"scroll_keep_alive"`
	Elasticsearch          *Elasticsearch  `yaml:"elasticsearch" json:"elasticsearch"`
	OpenSearch             *OpenSearch     `yaml:"opensearch" json:"opensearch"`
	Logger                 *logging.Config `yaml:"logger" json:"logger"`
}

// Elasticsearch elasticsearch config struct
type Elasticsearch struct {
	Addresses []string `json:"addresses" yaml:"addresses"`
	Username  string   `json:"username" yaml:"username"`
	Password  string   `json:"password" yaml:"password"`
}

// OpenSearch opensearch config struct
type OpenSearch struct {
	Addresses       []string `json:"addresses" yaml:"addresses"`
	Username        string   `json:"username" yaml:"username"`
	Password        string   `json:"password" yaml:"password"`
	InsecureSkipTLS bool     `json:"insecure_skip_tls" yaml:"insecure_skip_tls"`
}

// GetConfig reads search backend configuration
func GetConfig(v *viper.Viper) *Config {
	return &Config{
		IndexName:              getStringOrDefault(v, "search.index_name", "searchstack"),
		SilentlyFail:           v.GetBool("search.silently_fail"),
		DefaultOperator:        getStringOrDefault(v, "search.default_operator", "AND"),
		Fuzziness:              getStringOrDefault(v, "search.fuzziness", "AUTO"),
		LimitToRegisteredTypes: getBoolOrDefault(v, "search.limit_to_registered_types", true),
		BatchSize:              getIntOrDefault(v, "search.batch_size", 100),
		ScrollKeepAlive:        getStringOrDefault(v, "search.scroll_keep_alive", "5m"),
		Elasticsearch:          getElasticsearchConfigs(v),
		OpenSearch:             getOpenSearchConfigs(v),
		Logger:                 getLoggerConfigs(v),
	}
}

// getElasticsearchConfigs reads Elasticsearch configurations
func getElasticsearchConfigs(v *viper.Viper) *Elasticsearch {
	// Prefer `search.elasticsearch.*` but keep backward compatibility with `elasticsearch.*`.
	addresses := v.GetStringSlice("search.elasticsearch.addresses")
	if len(addresses) == 0 {
		addresses = v.GetStringSlice("elasticsearch.addresses")
	}

	username := v.GetString("search.elasticsearch.username")
	if username == "" {
		username = v.GetString("elasticsearch.username")
	}

	password := v.GetString("search.elasticsearch.password")
	if password == "" {
		password = v.GetString("elasticsearch.password")
	}

	return &Elasticsearch{
		Addresses: addresses,
		Username:  username,
		Password:  password,
	}
}

// getOpenSearchConfigs reads OpenSearch configurations
func getOpenSearchConfigs(v *viper.Viper) *OpenSearch {
	// Prefer `search.opensearch.*` but keep backward compatibility with `opensearch.*`.
	addresses := v.GetStringSlice("search.opensearch.addresses")
	if len(addresses) == 0 {
		addresses = v.GetStringSlice("opensearch.addresses")
	}

	username := v.GetString("search.opensearch.username")
	if username == "" {
		username = v.GetString("opensearch.username")
	}

	password := v.GetString("search.opensearch.password")
	if password == "" {
		password = v.GetString("opensearch.password")
	}

	insecureSkipTLS := v.GetBool("search.opensearch.insecure_skip_tls")
	if !v.IsSet("search.opensearch.insecure_skip_tls") {
		insecureSkipTLS = v.GetBool("opensearch.insecure_skip_tls")
	}

	return &OpenSearch{
		Addresses:       addresses,
		Username:        username,
		Password:        password,
		InsecureSkipTLS: insecureSkipTLS,
	}
}

// getLoggerConfigs reads logger configurations
func getLoggerConfigs(v *viper.Viper) *logging.Config {
	return &logging.Config{
		Level:  getStringOrDefault(v, "logger.level", "info"),
		Format: getStringOrDefault(v, "logger.format", "text"),
		Output: getStringOrDefault(v, "logger.output", "stdout"),
	}
}

func getStringOrDefault(v *viper.Viper, key, fallback string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return fallback
}

func getIntOrDefault(v *viper.Viper, key string, fallback int) int {
	if v.IsSet(key) {
		return v.GetInt(key)
	}
	return fallback
}

func getBoolOrDefault(v *viper.Viper, key string, fallback bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return fallback
}
