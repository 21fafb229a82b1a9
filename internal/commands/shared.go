package commands

import (
	"os"
	"regexp"
	"time"

	"github.com/sdpower/ccpet-go/internal/config"
	"github.com/sdpower/ccpet-go/internal/supabase"
)

var dateFormatRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// resolveSupabaseConfig applies the configuration priority: command line
// flags, then environment, then the user config file.
func resolveSupabaseConfig(flagURL, flagKey string) supabase.Config {
	cfg, _ := config.Load()

	url := firstNonEmpty(flagURL, os.Getenv("SUPABASE_URL"), cfg.Supabase.URL)
	key := firstNonEmpty(flagKey, os.Getenv("SUPABASE_ANON_KEY"), cfg.Supabase.APIKey)
	return supabase.Config{URL: url, APIKey: key}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func isValidDate(s string) bool {
	if !dateFormatRe.MatchString(s) {
		return false
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return false
	}
	return d.Format("2006-01-02") == s
}
