package main

import (
	"log"

	"wasend/pkg/cli"
	"wasend/pkg/tools"
)

func main() {
	configPath, err := tools.DefaultConfigPath()
	if err != nil {
		log.Fatalf("Failed to resolve config path: %v", err)
	}
	contacts := tools.NewContactStore(configPath)

	session, err := tools.NewSessionManager("")
	if err != nil {
		log.Fatalf("Failed to resolve profile directory: %v", err)
	}

	// History is optional here; the menu copes with it missing.
	var history *tools.HistoryStore
	if historyPath, err := tools.DefaultHistoryPath(); err == nil {
		if store, err := tools.OpenHistory(historyPath); err == nil {
			history = store
			defer store.Close()
		} else {
			log.Printf("Send history unavailable: %v", err)
		}
	}

	menu := cli.NewMenu(contacts, history, session)

	log.Println("📱 WhatsApp Web Sender Manager")
	log.Println("================================")
	log.Println("🔧 Manage contact labels and the saved session")
	log.Println("")

	menu.ShowMainMenu()
}
