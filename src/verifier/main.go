package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/fomc-rates/treasury-gate/src/utils"
	"github.com/fomc-rates/treasury-gate/src/verifier/config"

	"github.com/gocarina/gocsv"
)

var errRootMismatch = errors.New("audit root mismatch")

func LoadEventRecords(path string) ([]utils.EventRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var records []utils.EventRecord
	if err = gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, err
	}
	return records, utils.CheckEventSequence(records)
}

// RebuildAuditRoot commits every record to a fresh memory tree and returns its root.
func RebuildAuditRoot(records []utils.EventRecord) ([]byte, error) {
	tree, err := utils.NewAuditTree("memory", "")
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		leaf := utils.EventLeafHash(r.Seq, r.Magnitude, r.Increase, r.Timestamp)
		if r.LeafHash != "" && r.LeafHash != hex.EncodeToString(leaf) {
			return nil, fmt.Errorf("event %d: leaf hash does not match its fields", r.Seq)
		}
		if err = tree.Set(r.Seq, leaf); err != nil {
			return nil, err
		}
	}
	if _, err = tree.Commit(nil); err != nil {
		return nil, err
	}
	return tree.Root(), nil
}

func VerifyEvent(eventConfig *config.EventConfig) (bool, error) {
	root, err := hex.DecodeString(eventConfig.Root)
	if err != nil || len(root) != 32 {
		return false, errors.New("invalid audit root")
	}
	proof := make([][]byte, len(eventConfig.Proof))
	for i, p := range eventConfig.Proof {
		proof[i], err = hex.DecodeString(p)
		if err != nil {
			return false, err
		}
	}
	leaf := utils.EventLeafHash(eventConfig.Seq, eventConfig.Magnitude, eventConfig.Increase, eventConfig.Timestamp)
	return utils.VerifyMerkleProof(root, eventConfig.Seq, proof, leaf), nil
}

func main() {
	eventFlag := flag.Bool("event", false, "flag which indicates single event proof verification")
	flag.Parse()

	if *eventFlag {
		eventConfig := &config.EventConfig{}
		content, err := os.ReadFile("config/event_config.json")
		if err != nil {
			panic(err.Error())
		}
		if err = json.Unmarshal(content, eventConfig); err != nil {
			panic(err.Error())
		}
		ok, err := VerifyEvent(eventConfig)
		if err != nil {
			panic(err.Error())
		}
		if !ok {
			fmt.Println("verify event", eventConfig.Seq, "failed")
			os.Exit(1)
		}
		fmt.Println("verify event", eventConfig.Seq, "pass!!!")
		return
	}

	verifierConfig := &config.Config{}
	content, err := os.ReadFile("config/config.json")
	if err != nil {
		panic(err.Error())
	}
	if err = json.Unmarshal(content, verifierConfig); err != nil {
		panic(err.Error())
	}
	expected, err := hex.DecodeString(verifierConfig.AuditRoot)
	if err != nil {
		panic(err.Error())
	}
	records, err := LoadEventRecords(verifierConfig.EventsFile)
	if err != nil {
		panic(err.Error())
	}
	root, err := RebuildAuditRoot(records)
	if err != nil {
		panic(err.Error())
	}
	if !bytes.Equal(root, expected) {
		fmt.Printf("rebuilt root %x, published %x\n", root, expected)
		panic(errRootMismatch.Error())
	}
	fmt.Printf("%d events verified against audit root %x\n", len(records), root)
}
