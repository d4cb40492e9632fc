// Package config provides configuration parsing for a binderlink server.
//
// The configuration is stored in binderlink.json. This package handles
// loading, saving, and validating configuration; every field has a
// default, so a server can also run from New() alone.
//
// # Configuration File Structure
//
//	{
//	  "listen": ":8585",
//	  "publicBaseUrl": "https://binder.example.org/",
//	  "baseUrl": "/",
//	  "providers": {
//	    "file": "providers.yaml",
//	    "watch": true
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "allowedIps": ["10.0.0.0/8", "127.0.0.1"]
//	  },
//	  "events": {
//	    "log": "events.jsonl",
//	    "sqlite": "data/events.db"
//	  },
//	  "websocket": {
//	    "readLimit": 4096,
//	    "pingInterval": "30s"
//	  }
//	}
//
// The provider registry may instead come from S3:
//
//	"providers": {"s3": {"bucket": "binder-config", "key": "providers.json", "region": "eu-west-1"}}
//
// BINDERLINK_LISTEN and BINDERLINK_PUBLIC_BASE_URL override the file.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
