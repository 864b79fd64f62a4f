package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagAliasSharesValue(t *testing.T) {
	cmd := &cobra.Command{Use: "t"}
	var desc string
	var tags []string
	cmd.Flags().StringVar(&desc, "description", "", "Description")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tags")
	flagAlias(cmd.Flags(), "description", "desc")
	flagAlias(cmd.Flags(), "tag", "t")

	require.NoError(t, cmd.Flags().Parse([]string{"--desc", "Sweet things", "--t", "a,b", "--tag", "c"}))
	assert.Equal(t, "Sweet things", desc)
	assert.Equal(t, []string{"a", "b", "c"}, tags)
	assert.True(t, cmd.Flags().Lookup("desc").Hidden)
	assert.True(t, flagOrAliasChanged(cmd, "description"))
	assert.True(t, cmd.Flags().Changed("description"), "setting an alias marks the canonical flag")
}

func TestFlagAliasUnknownPanics(t *testing.T) {
	fs := pflag.NewFlagSet("t", pflag.ContinueOnError)
	assert.Panics(t, func() { flagAlias(fs, "missing", "m") })
}

func TestFlagOrAliasChangedUnset(t *testing.T) {
	cmd := &cobra.Command{Use: "t"}
	var name string
	cmd.Flags().StringVar(&name, "name", "", "")
	flagAlias(cmd.Flags(), "name", "n2")
	require.NoError(t, cmd.Flags().Parse(nil))
	assert.False(t, flagOrAliasChanged(cmd, "name"))
}

func TestNormalizeEnum(t *testing.T) {
	valid := []string{"available", "unavailable", "limited"}

	got, err := normalizeEnum("availability", " Available ", valid)
	require.NoError(t, err)
	assert.Equal(t, "available", got)

	got, err = normalizeEnum("availability", "lim", valid)
	require.NoError(t, err)
	assert.Equal(t, "limited", got)

	_, err = normalizeEnum("availability", "soldout", valid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of available, unavailable, limited")
	assert.Equal(t, exitUsage, ExitCode(err))

	_, err = normalizeEnum("availability", "", valid)
	require.Error(t, err)

	_, err = normalizeEnum("sort", "p", []string{"price", "popularity"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous sort")
}

func TestSplitCommaList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitCommaList(" a, b ,,c "))
	assert.Nil(t, splitCommaList(""))
	assert.Nil(t, splitCommaList(" , "))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "  ", "b", "c"))
	assert.Equal(t, "", firstNonEmpty())
}

func TestYesNo(t *testing.T) {
	assert.Equal(t, "yes", yesNo(true))
	assert.Equal(t, "no", yesNo(false))
}
