/*
Package config loads the tracking configuration for leadtrack.

# Sources

Configuration is resolved in three layers, later layers winning:

 1. Placeholder defaults from Default()
 2. An optional YAML or JSON file, read through ReadFile, whose "tracking"
    section is applied with Tracking.Overlay
 3. LEADTRACK_* environment variables parsed with caarlos0/env

	cfg, err := config.Load(os.Getenv("LEADTRACK_CONFIG_FILE"))
	if err != nil {
	    config.Exitf("load config: %v", err)
	}

A file looks like:

	tracking:
	  container_id: GTM-ABC1234
	  analytics_property_id: G-ABCDEF1234
	  social_pixel_id: "123456789012345"
	  ads_account_id: AW-123456789
	  debug: false
	  default_conversion_value: 1
	  currency: BRL

# File Values

Values wraps the decoded file map and returns defaults for missing keys or
mismatched types, so a partial file only overrides what it names.

# Thread Safety

Tracking is a plain value. Load it once and pass copies around.
*/
package config
