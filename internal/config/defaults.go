package config

var defaults = map[string]any{
	"log_level":   "info",
	"listen_addr": ":3000",
	"base_url":    "",
	"timezone":    "Local",

	"allowed_networks": "",
	"admin_networks":   "127.0.0.1/32,::1/128",
	"trusted_proxies":  "",

	"max_upload_bytes": 10 << 20,

	"storage.local.path": "./data/parking.db",

	"ocr.provider":         "platerecognizer",
	"ocr.api_url":          "https://api.platerecognizer.com/v1/plate-reader/",
	"ocr.api_token":        "",
	"ocr.regions":          "sk",
	"ocr.timeout":          10,
	"ocr.max_plate_length": 7,
	"ocr.min_confidence":   0.0,
	"ocr.rotate":           true,
	"ocr.mirror":           true,
	"ocr.crop_top":         0.5,
	"ocr.debug_dir":        "./uploads",
	"ocr.aws_region":       "eu-central-1",

	"email.provider":         "none",
	"email.host":             "host.docker.internal",
	"email.port":             25,
	"email.username":         "",
	"email.password":         "",
	"email.from":             "noreply@example.com",
	"email.from_name":        "ParkWise",
	"email.sendgrid_api_key": "",
	"email.timeout":          15,

	"cleanup.schedule":      "@hourly",
	"cleanup.max_age_hours": 24,

	"slots_seed_file": "",
}

func Defaults() map[string]any {
	values := make(map[string]any)
	for k, v := range defaults {
		values[k] = v
	}
	return values
}
