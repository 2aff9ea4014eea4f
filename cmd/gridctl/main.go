package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/exfury/gridiron-core/core"
	"github.com/exfury/gridiron-core/crypto"
	"github.com/exfury/gridiron-core/rpc"
)

const defaultRPC = "http://localhost:8545"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	var err error
	switch os.Args[1] {
	case "run":
		err = runScenario(os.Args[2:])
	case "tx":
		err = runTx(os.Args[2:])
	case "query":
		err = runQuery(os.Args[2:])
	case "addr":
		err = runAddr(os.Args[2:], os.Stdout)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: gridctl <command> [flags]")
	fmt.Fprintln(os.Stderr, "  run <scenario.yaml>              replay a scenario against an in-memory ledger")
	fmt.Fprintln(os.Stderr, "  tx -height N -time T '<msg json>' submit a message to gridd")
	fmt.Fprintln(os.Stderr, "  query <namespace>/<path>         query gridd state")
	fmt.Fprintln(os.Stderr, "  addr <hex|bech32>                convert an address")
}

func runScenario(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("run expects exactly one scenario file")
	}
	scenario, err := LoadScenario(args[0])
	if err != nil {
		return err
	}
	return scenario.Run(context.Background(), os.Stdout)
}

func runTx(args []string) error {
	fs := flag.NewFlagSet("tx", flag.ExitOnError)
	endpoint := fs.String("rpc", defaultRPC, "gridd endpoint")
	height := fs.Uint64("height", 0, "block height of the invocation")
	ts := fs.Uint64("time", uint64(time.Now().Unix()), "block time (unix seconds)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("tx expects one JSON message argument")
	}
	if _, err := core.DecodeMsg([]byte(fs.Arg(0))); err != nil {
		return err
	}
	body, err := json.Marshal(rpc.TxRequest{
		Block: core.BlockContext{Height: *height, Time: *ts},
		Msg:   json.RawMessage(fs.Arg(0)),
	})
	if err != nil {
		return err
	}
	resp, err := http.Post(strings.TrimRight(*endpoint, "/")+"/tx", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	return printResponse(resp)
}

func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	endpoint := fs.String("rpc", defaultRPC, "gridd endpoint")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("query expects <namespace>/<path>")
	}
	resp, err := http.Get(strings.TrimRight(*endpoint, "/") + "/query/" + strings.TrimLeft(fs.Arg(0), "/"))
	if err != nil {
		return err
	}
	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, payload, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(payload)
	}
	fmt.Println(pretty.String())
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gridd returned %s", resp.Status)
	}
	return nil
}

func runAddr(args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("addr expects one address")
	}
	addr, err := crypto.ParseAddress(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "bech32: %s\nhex:    %s\n", addr.String(), common.BytesToAddress(addr.Bytes()).Hex())
	return nil
}
