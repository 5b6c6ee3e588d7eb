package main

import (
	"fmt"

	"github.com/spf13/viper"

	"ebbs/consensus/forum"
	"ebbs/ebbs"
)

// bootstrapFromConfig is only used the first time we run, after that the forum is restored from disk. The forum
// instance is our own wallet, the owner defaults to it too.
func bootstrapFromConfig(conf *viper.Viper, w ebbs.Wallet) (forum.Bootstrap, error) {
	b := forum.Bootstrap{
		Instance:   w.Account,
		Deployer:   conf.GetString("owner"),
		Admins:     conf.GetStringSlice("initialAdmins"),
		RootData:   []byte(conf.GetString("rootPostData")),
		Active:     conf.GetBool("startActive"),
		EditWindow: conf.GetDuration("maxPostUpdateDelay"),
		PreAction:  conf.GetString("preAction"),
		PostAction: conf.GetString("postAction"),
	}
	if len(b.Deployer) == 0 {
		b.Deployer = w.Account
	}
	if b.EditWindow <= 0 {
		return b, fmt.Errorf("maxPostUpdateDelay must be positive, got %q", conf.GetString("maxPostUpdateDelay"))
	}
	return b, nil
}
