package cli

import (
	"cmp"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"

	"github.com/kbukum/apikit/httpclient/rest"
)

// AppSetting is the payload of the appSetting endpoint.
type AppSetting struct {
	IOSVersion                string `json:"ios_version" validate:"required"`
	IOSVersionForceUpdate     int    `json:"ios_version_force_update"`
	AndroidVersion            string `json:"android_version"`
	AndroidVersionForceUpdate int    `json:"android_version_force_update"`
	AdEnable                  int    `json:"ad_enable"`
	AdURL                     string `json:"ad_url"`
}

// NeedsForcedUpdate reports whether an iOS app running version current
// must update before it can be used.
func (s AppSetting) NeedsForcedUpdate(current string) bool {
	return s.IOSVersionForceUpdate != 0 && compareVersions(current, s.IOSVersion) < 0
}

// AdsEnabled reports whether the backend wants ads shown.
func (s AppSetting) AdsEnabled() bool {
	return s.AdEnable != 0
}

// compareVersions orders version strings. Semantic versions ("2.1",
// "v2.1.0-rc.1") compare by semver rules; anything else compares digit
// runs by value and the rest byte by byte.
func compareVersions(a, b string) int {
	va, vb := "v"+strings.TrimPrefix(a, "v"), "v"+strings.TrimPrefix(b, "v")
	if semver.IsValid(va) && semver.IsValid(vb) {
		return semver.Compare(va, vb)
	}

	for a != "" && b != "" {
		ra, restA := nextRun(a)
		rb, restB := nextRun(b)
		if c := compareRuns(ra, rb); c != 0 {
			return c
		}
		a, b = restA, restB
	}
	return cmp.Compare(len(a), len(b))
}

// nextRun splits off the leading run of digits or of non-digits.
func nextRun(s string) (run, rest string) {
	digit := isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == digit {
		i++
	}
	return s[:i], s[i:]
}

func compareRuns(a, b string) int {
	if isDigit(a[0]) && isDigit(b[0]) {
		a, b = strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
		if c := cmp.Compare(len(a), len(b)); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// appSettingsOutput is what app-settings prints.
type appSettingsOutput struct {
	AppSetting
	CurrentVersion string `json:"current_version,omitempty"`
	ForcedUpdate   *bool  `json:"forced_update,omitempty"`
}

func newAppSettingsCmd(o *rootOptions) *cobra.Command {
	var current string

	cmd := &cobra.Command{
		Use:   "app-settings",
		Short: "Fetch the app settings and check for a forced update",
		Example: `  # Show the settings
  apikit app-settings --base-url https://api.example.com/

  # Check whether version 1.9 must update
  apikit app-settings --current-version 1.9 --jq .forced_update`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}

			res := rest.Request[AppSetting](cmd.Context(), c, "appSetting",
				rest.WithMethod(http.MethodGet),
				rest.WithEncoding(rest.EncodingURL),
				rest.WithoutAuthorization(),
			)
			if res.Err != nil {
				return res.Err
			}

			setting, _ := res.Payload()
			out := appSettingsOutput{AppSetting: setting, CurrentVersion: current}
			if current != "" {
				forced := setting.NeedsForcedUpdate(current)
				out.ForcedUpdate = &forced
			}
			return writeJSON(cmd.OutOrStdout(), out, o.jq)
		},
	}
	cmd.Flags().StringVar(&current, "current-version", "", "installed app version to check against ios_version")
	return cmd
}
