package main

import (
	"fmt"
	"strconv"
	"strings"
)

type commandKind int

const (
	cmdNone commandKind = iota
	cmdType
	cmdPick
	cmdFavorite
	cmdRefresh
	cmdShow
	cmdDrawer
	cmdQuit
)

type command struct {
	kind  commandKind
	text  string
	index int // zero-based
}

// parseCommand interprets one line of input. Anything not starting with ':'
// is the new contents of the search box.
func parseCommand(line string) (command, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, ":") {
		if strings.TrimSpace(line) == "" {
			return command{kind: cmdNone}, nil
		}
		return command{kind: cmdType, text: line}, nil
	}

	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return command{}, fmt.Errorf("empty command")
	}
	name, args := fields[0], fields[1:]

	switch name {
	case "quit", "q":
		return command{kind: cmdQuit}, nil
	case "show":
		return command{kind: cmdShow}, nil
	case "favs", "drawer":
		return command{kind: cmdDrawer}, nil
	case "refresh", "r":
		return command{kind: cmdRefresh}, nil
	case "pick", "fav":
		if len(args) != 1 {
			return command{}, fmt.Errorf(":%s takes exactly one number", name)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return command{}, fmt.Errorf(":%s: %q is not a positive number", name, args[0])
		}
		kind := cmdPick
		if name == "fav" {
			kind = cmdFavorite
		}
		return command{kind: kind, index: n - 1}, nil
	default:
		return command{}, fmt.Errorf("unknown command :%s", name)
	}
}

const helpText = `Type a city name to search.
  :pick N     select suggestion N
  :fav N      select favorite N
  :favs       list favorites
  :refresh    reload the current city
  :show       redraw the current city
  :quit       exit
`
