package cmd

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/pilosa/sparkify/test"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestSetAllConfig(t *testing.T) {
	dir := test.MustTempDir(t, "sparkify-config")
	conf := filepath.Join(dir, "sparkify.toml")
	err := ioutil.WriteFile(conf, []byte(`
output = "s3://bucket/tables"
index-type = "bolt"
concurrency = 3
stages = ["activity"]
`), 0644)
	test.ErrNil(t, err, "writing config")

	os.Setenv("SPARKIFY_INDEX_TYPE", "leveldb")
	defer os.Unsetenv("SPARKIFY_INDEX_TYPE")

	var config, input, output, indexType string
	var concurrency int
	var stages []string
	flags := pflag.NewFlagSet("etl", pflag.ContinueOnError)
	flags.StringVar(&config, "config", "", "")
	flags.StringVar(&input, "input", "data", "")
	flags.StringVar(&output, "output", "output", "")
	flags.StringVar(&indexType, "index-type", "mem", "")
	flags.IntVar(&concurrency, "concurrency", 4, "")
	flags.StringSliceVar(&stages, "stages", []string{"catalog", "activity"}, "")
	test.ErrNil(t, flags.Parse([]string{"--config", conf, "--concurrency", "8"}), "parsing flags")

	test.ErrNil(t, setAllConfig(viper.New(), flags, "SPARKIFY"), "setting config")
	test.MustBe(t, "data", input, "default")
	test.MustBe(t, "s3://bucket/tables", output, "config file")
	test.MustBe(t, "leveldb", indexType, "environment over config file")
	test.MustBe(t, 8, concurrency, "flag over config file")
	test.MustBe(t, []string{"activity"}, stages, "string slice from config file")
}

func TestSetAllConfigSliceFlagNotAppended(t *testing.T) {
	dir := test.MustTempDir(t, "sparkify-config")
	conf := filepath.Join(dir, "sparkify.toml")
	test.ErrNil(t, ioutil.WriteFile(conf, []byte(`stages = ["activity"]`), 0644), "writing config")

	var config string
	var stages []string
	flags := pflag.NewFlagSet("etl", pflag.ContinueOnError)
	flags.StringVar(&config, "config", "", "")
	flags.StringSliceVar(&stages, "stages", []string{"catalog"}, "")
	test.ErrNil(t, flags.Parse([]string{"--config", conf, "--stages", "index"}), "parsing flags")

	test.ErrNil(t, setAllConfig(viper.New(), flags, "SPARKIFY"), "setting config")
	test.MustBe(t, []string{"index"}, stages)
}

func TestSetAllConfigMissingFile(t *testing.T) {
	var config string
	flags := pflag.NewFlagSet("etl", pflag.ContinueOnError)
	flags.StringVar(&config, "config", "", "")
	test.ErrNil(t, flags.Parse([]string{"--config", "/nonexistent/sparkify.toml"}), "parsing flags")
	if err := setAllConfig(viper.New(), flags, "SPARKIFY"); err == nil {
		t.Fatal("expected error reading missing config file")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	rc := NewRootCommand(nil, ioutil.Discard, ioutil.Discard)
	for _, name := range []string{"etl", "gen", "inspect"} {
		c, _, err := rc.Find([]string{name})
		if err != nil || c.Name() != name {
			t.Fatalf("finding %s: %v", name, err)
		}
	}
	f := ETLMain
	if f == nil || f.Concurrency != 4 {
		t.Fatalf("unexpected etl defaults: %+v", f)
	}
	if rc.PersistentFlags().Lookup("config") == nil {
		t.Fatal("no config flag")
	}
}
