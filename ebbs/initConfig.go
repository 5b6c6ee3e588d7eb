package ebbs

import (
	"os"

	"github.com/spf13/viper"
)

// InitConfig sets up our Viper config object
func InitConfig(config *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		LogCLI(err.Error(), 0)
	}
	config.SetDefault("rootDir", homeDir+"/ebbs/")
	config.SetConfigType("yaml")
	config.SetConfigFile(config.GetString("rootDir") + "config.yaml")
	err = config.ReadInConfig()
	if err != nil {
		LogCLI(err.Error(), 4)
	}
	SetDefaults(config)
	// Create our working directory and config file if not exist
	initRootDir(config)
	Touch(config.GetString("rootDir") + "config.yaml")
	err = config.WriteConfig()
	if err != nil {
		LogCLI(err.Error(), 0)
	}
}

// SetDefaults applies every default without touching the disk.
func SetDefaults(config *viper.Viper) {
	config.SetDefault("firstRun", true)
	config.SetDefault("flatFileDir", "data/")
	config.SetDefault("backupDir", "backups/")
	config.SetDefault("logLevel", 4)
	config.SetDefault("logActors", false)
	config.SetDefault("websocketAddr", "127.0.0.1:1032")
	config.SetDefault("wsRateEvery", "200ms")
	config.SetDefault("wsRateBurst", 20)

	// the author edit window, full admins and holders of the update bit are exempt
	config.SetDefault("maxPostUpdateDelay", "60s")
	config.SetDefault("rootPostData", "123")
	config.SetDefault("startActive", false)
	// empty means the account of our own wallet
	config.SetDefault("owner", "")
	config.SetDefault("initialAdmins", []string{})
	config.SetDefault("preAction", "allow")
	config.SetDefault("postAction", "null")
}

func initRootDir(conf *viper.Viper) {
	_, err := os.Stat(conf.GetString("rootDir"))
	if os.IsNotExist(err) {
		err = os.MkdirAll(conf.GetString("rootDir"), 0755)
		if err != nil {
			LogCLI(err, 0)
		}
	}
}
