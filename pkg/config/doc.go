/*
Package config loads slidegate configuration from defaults, an optional YAML
file, a .env file and SLIDEGATE_* environment variables.

Example file:

	limiter:
	  window: 5s
	  capacity: 10
	client:
	  url: https://ismp.crpt.ru/api/v3/lk/documents/create
	  timeout: 10s
	demo:
	  workers: 20
	  report_schedule: "@every 1s"
	metrics:
	  enabled: true
	  address: ":9090"
	logging:
	  level: info
	  format: console

Validate collects every problem into one error built with errors.Join, each
part a *errors.ValidationError.
*/
package config
