package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/eiannone/keyboard"

	"ebbs/consensus/conductor"
	"ebbs/database"
	"ebbs/ebbs"
)

// cliListener is a cheap and nasty way to look inside a running forum. It listens for keypresses and executes commands.
func cliListener(interrupt chan struct{}, c *conductor.Conductor) {
	fmt.Println("Press:\nq: to quit\nw: to print your current wallet\np: to print every post\na: to print admins\n" +
		"See cliListener.go for more")
	for {
		r, k, err := keyboard.GetSingleKey()
		if err != nil {
			ebbs.LogCLI(err.Error(), 1)
			return
		}
		str := string(r)
		switch str {
		default:
			if k == keyboard.KeyEnter {
				fmt.Println("\n-----------------------------------")
				break
			}
			if r == 0 {
				break
			}
			fmt.Println("Key " + str + " is not bound to anything. See main.cliListener for more details.")
		case "q":
			ebbs.Shutdown()
			go func() {
				ebbs.LogCLI("User requested to terminate", 4)
				time.Sleep(time.Second * 10)
				println("Something didn't shutdown cleanly, the forum snapshot on disk is probably stale.")
				os.Exit(0)
			}()
			return //if we do not return here, we cannot ctrl+c in case of errors during shutdown
		case "w":
			fmt.Printf("\nWallet:\n%#v\nSequence: %d\n", ebbs.MyWallet(), c.Sequences().Current(ebbs.MyWallet().Account))
		case "p":
			all, err := c.Forum().AllPosts()
			if err != nil {
				ebbs.LogCLI(err.Error(), 2)
				break
			}
			spew.Dump(all)
		case "a":
			all, err := c.Forum().Admins()
			if err != nil {
				ebbs.LogCLI(err.Error(), 2)
				break
			}
			for i, entry := range all {
				fmt.Printf("%d: %s mask %d\n", i, entry.Account, entry.Mask)
			}
		case "r":
			all, err := c.Forum().AllReputation()
			if err != nil {
				ebbs.LogCLI(err.Error(), 2)
				break
			}
			var accounts []string
			for account := range all {
				accounts = append(accounts, account)
			}
			sort.Strings(accounts)
			for _, account := range accounts {
				fmt.Printf("%s: %d\n", account, all[account])
			}
		case "k":
			spew.Dump(c.Forum().Hooks().Keywords().All())
		case "h":
			hs, err := c.Forum().HashSeq()
			if err != nil {
				ebbs.LogCLI(err.Error(), 2)
				break
			}
			fmt.Printf("\nforum: %s posts: %d\nsequences: %s\n", hs.Hash, hs.Sequence, c.Sequences().HashSeq().Hash)
		case "K":
			for kind, mind := range ebbs.GetAllKinds() {
				fmt.Printf("Kind: %d Mind: %s\n", kind, mind)
			}
		case "b":
			dir, err := database.Backup()
			if err != nil {
				ebbs.LogCLI(err.Error(), 1)
				break
			}
			ebbs.LogCLI("Backed up the data directory to "+dir, 4)
		}
	}
}
