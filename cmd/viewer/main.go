package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"chat-relay/domain/chat"
)

// storedMessage mirrors the on-disk JSON shape written by the message
// repository.
type storedMessage struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Message string `json:"message"`
	At      int64  `json:"at"`
}

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(" chat-relay messages "))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Timestamp", "User", "Message"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()

			err := item.Value(func(v []byte) error {
				var msg storedMessage
				if err := json.Unmarshal(v, &msg); err != nil {
					// Skip unreadable values instead of aborting the scan
					fmt.Printf("Error unmarshaling key %s: %v\n", string(item.Key()), err)
					return nil
				}

				displayID := msg.UserID
				if len(displayID) > 8 {
					displayID = displayID[:8]
				}

				table.Append([]string{
					string(item.Key()),
					time.Unix(0, msg.At).UTC().Format(chat.TimestampLayout),
					displayID,
					msg.Message,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

// openDB opens Badger read-only; BypassLockGuard allows inspecting the
// store while the relay process holds the lock.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	return badger.Open(opts)
}
