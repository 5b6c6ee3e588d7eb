package main

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebbs/ebbs"
)

func TestBootstrapFromConfig(t *testing.T) {
	conf := viper.New()
	ebbs.SetDefaults(conf)
	w := ebbs.Wallet{Account: "me"}

	b, err := bootstrapFromConfig(conf, w)
	require.NoError(t, err)
	assert.Equal(t, "me", b.Instance)
	assert.Equal(t, "me", b.Deployer)
	assert.Empty(t, b.Admins)
	assert.Equal(t, []byte("123"), b.RootData)
	assert.False(t, b.Active)
	assert.Equal(t, 60*time.Second, b.EditWindow)
	assert.Equal(t, "allow", b.PreAction)
	assert.Equal(t, "null", b.PostAction)

	conf.Set("owner", "someone")
	conf.Set("initialAdmins", []string{"a", "b"})
	conf.Set("maxPostUpdateDelay", "5m")
	conf.Set("startActive", true)
	b, err = bootstrapFromConfig(conf, w)
	require.NoError(t, err)
	assert.Equal(t, "someone", b.Deployer)
	assert.Equal(t, []string{"a", "b"}, b.Admins)
	assert.Equal(t, 5*time.Minute, b.EditWindow)
	assert.True(t, b.Active)

	conf.Set("maxPostUpdateDelay", "0s")
	_, err = bootstrapFromConfig(conf, w)
	assert.Error(t, err)
}
