package config

import (
	"fmt"
	"os"
)

// exampleConfig is the starter configuration written by `labrunner init`.
// Builtin targets (build, upload, upload-test, clean, format, check-codestyle,
// test, test-cov) exist without being listed; a targets entry with a builtin
// name replaces that builtin.
const exampleConfig = `# labrunner project configuration
project:
  name: myproject
  dist_dir: dist
  runs_dir: runs

# Style settings shared by the format and check-codestyle targets.
# Steps reference them as {line_length} and {ignore_codes}.
codestyle:
  line_length: 120
  ignore:
    - E203
    - W503

# Extra targets, or overrides for builtin ones.
targets:
  - name: docs-build
    description: Render the documentation site
    steps:
      - mkdocs build --strict

# Parameter sweeps. Each experiment expands its grid into one run per
# combination; grid values are appended to the command as --key=value.
sweeps:
  - name: baseline
    backend: processes
    max_parallel: 4
    pause_between: 10s
    devices: 0
    experiments:
      - name: baseline
        command: python -m train --train_dir={runs_dir}
        params:
          - key: seed
            values: [1111, 2222, 3333, 4444]

# Named parameter profiles merged into runs that do not set the key themselves.
profiles:
  quick:
    params:
      train_for_env_steps: 100000

docs:
  config: docs/site.yaml
  generator: mkdocs
  site_dir: site

logging:
  level: info
  format: text

# daemon:
#   http_addr: ":8799"
#   schedules:
#     - name: nightly-check
#       cron: "0 2 * * *"
#       target: check-codestyle
#   watch:
#     enabled: true
#     paths: [src]
#     target: check-codestyle
#   nats:
#     url: ${NATS_URL}
`

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
