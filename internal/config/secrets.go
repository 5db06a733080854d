package config

// RedactedConfig returns a copy of cfg with credentials replaced by "***",
// suitable for logging.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)
	redact(&out.Redis.Password)
	redact(&out.Server.APIKey)

	if cfg.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = append([]string(nil), cfg.Server.CORSOrigins...)
	}
	if cfg.Chart.MarkerTimestamps != nil {
		out.Chart.MarkerTimestamps = append([]int64(nil), cfg.Chart.MarkerTimestamps...)
	}
	if cfg.Chart.MarkerLabels != nil {
		out.Chart.MarkerLabels = append([]string(nil), cfg.Chart.MarkerLabels...)
	}
	return out
}

const redacted = "***"

func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
