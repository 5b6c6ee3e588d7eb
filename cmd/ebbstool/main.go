package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"ebbs/consensus/forum"
	"ebbs/ebbs"
	"ebbs/messaging/client"
)

func main() {
	if len(os.Args[1:]) < 1 {
		usage()
		return
	}
	conf := viper.New()
	ebbs.InitConfig(conf)
	ebbs.SetConfig(conf)

	var kind int64
	var content interface{}
	var err error
	status := os.Args[1] == "status"
	if !status {
		if kind, content, err = parse(os.Args[1:]); err != nil {
			fmt.Println("ERROR: " + err.Error())
			usage()
			os.Exit(1)
		}
	}
	url := "ws://" + conf.GetString("websocketAddr")
	if u := os.Getenv("EBBS_RELAY"); len(u) > 0 {
		url = u
	}
	c, err := client.Dial(url, ebbs.MyWallet())
	if err != nil {
		fmt.Println("ERROR: " + err.Error())
		os.Exit(1)
	}
	defer c.Close()
	if status {
		s, err := c.Status()
		if err != nil {
			fmt.Println("ERROR: " + err.Error())
			os.Exit(1)
		}
		fmt.Printf("OK: instance %s active=%t terminated=%t posts=%d admins=%d hash=%s (signed)\n",
			s.Instance, s.Active, s.Terminated, s.Posts, s.Admins, s.Hash)
		return
	}
	note, err := c.Publish(kind, content)
	if err != nil {
		fmt.Println("ERROR: " + err.Error())
		os.Exit(1)
	}
	fmt.Println("OK: " + note)
}

// parse turns command line arguments into a forum event kind and its content.
func parse(args []string) (kind int64, content interface{}, err error) {
	need := func(n int) error {
		if len(args) != n+1 {
			return fmt.Errorf("%s takes %d arguments", args[0], n)
		}
		return nil
	}
	switch args[0] {
	case "post":
		if err = need(2); err == nil {
			var parent int64
			if parent, err = cast.ToInt64E(args[1]); err == nil {
				return forum.KindCreatePost, forum.Kind642000{InReplyTo: parent, Data: []byte(args[2])}, nil
			}
		}
	case "update":
		if err = need(2); err == nil {
			var id int64
			if id, err = cast.ToInt64E(args[1]); err == nil {
				return forum.KindUpdatePost, forum.Kind642002{PostID: id, Data: []byte(args[2])}, nil
			}
		}
	case "vote":
		if err = need(2); err == nil {
			var id, value int64
			if id, err = cast.ToInt64E(args[1]); err != nil {
				return
			}
			if value, err = cast.ToInt64E(args[2]); err == nil {
				return forum.KindVote, forum.Kind642004{PostID: id, Value: value}, nil
			}
		}
	case "meta":
		if err = need(3); err == nil {
			var id int64
			var old, meta []byte
			if id, err = cast.ToInt64E(args[1]); err != nil {
				return
			}
			if old, err = hex.DecodeString(args[2]); err != nil {
				return
			}
			if meta, err = hex.DecodeString(args[3]); err == nil {
				return forum.KindSetMeta, forum.Kind642006{PostID: id, OldMeta: old, NewMeta: meta}, nil
			}
		}
	case "admin":
		if err = need(2); err == nil {
			var mask int64
			if mask, err = cast.ToInt64E(args[2]); err == nil {
				return forum.KindSetAdmin, forum.Kind642008{Account: args[1], Mask: mask}, nil
			}
		}
	case "active":
		if err = need(1); err == nil {
			var active bool
			if active, err = cast.ToBoolE(args[1]); err == nil {
				return forum.KindSetActive, forum.Kind642010{Active: active}, nil
			}
		}
	case "kill":
		if err = need(0); err == nil {
			return forum.KindKill, nil, nil
		}
	case "pre":
		if err = need(1); err == nil {
			return forum.KindSetPreAction, forum.Kind642014{Handle: args[1]}, nil
		}
	case "postaction":
		if err = need(1); err == nil {
			return forum.KindSetPostAction, forum.Kind642014{Handle: args[1]}, nil
		}
	default:
		err = fmt.Errorf("unknown command %s", args[0])
	}
	return 0, nil, err
}

func usage() {
	fmt.Println()
	fmt.Println("EBBS TOOL USAGE")
	fmt.Println()
	fmt.Println("This tool signs a forum event with your wallet and sends it to the node at websocketAddr (or $EBBS_RELAY).")
	fmt.Println()
	fmt.Println("ebbstool status")
	fmt.Println("ebbstool post <inReplyTo> <text>")
	fmt.Println("ebbstool update <postId> <text>")
	fmt.Println("ebbstool vote <postId> <-1|0|1>")
	fmt.Println("ebbstool meta <postId> <old meta hex> <new meta hex>")
	fmt.Println("ebbstool admin <account> <mask 0-3>")
	fmt.Println("ebbstool active <true|false>")
	fmt.Println("ebbstool kill")
	fmt.Println("ebbstool pre <allow|block|admins-only>")
	fmt.Println("ebbstool postaction <null|keywords|audit|keywords+audit>")
	fmt.Println()
}
