package cli

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"wasend/pkg/tools"
)

type Menu struct {
	contacts *tools.ContactStore
	history  *tools.HistoryStore
	session  *tools.SessionManager
	reader   *bufio.Reader
}

func NewMenu(contacts *tools.ContactStore, history *tools.HistoryStore, session *tools.SessionManager) *Menu {
	return &Menu{
		contacts: contacts,
		history:  history,
		session:  session,
		reader:   bufio.NewReader(os.Stdin),
	}
}

func (m *Menu) ShowMainMenu() {
	for {
		m.clearScreen()
		m.printHeader()
		m.printOptions()

		choice := m.getInput("Choose an option (0-5): ")

		switch choice {
		case "1":
			m.listContacts()
		case "2":
			m.addContact()
		case "3":
			m.removeContact()
		case "4":
			m.showHistory()
		case "5":
			m.clearSession()
		case "0":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Invalid choice. Please try again.")
			m.pause()
		}
	}
}

func (m *Menu) clearScreen() {
	fmt.Print("\033[H\033[2J")
}

func (m *Menu) printHeader() {
	fmt.Println("========================================")
	fmt.Println("   WHATSAPP WEB SENDER MANAGER")
	fmt.Println("========================================")
	fmt.Println()
}

func (m *Menu) printOptions() {
	fmt.Println("Menu:")
	fmt.Println("1. 📋 List Contacts")
	fmt.Println("2. ➕ Add Contact")
	fmt.Println("3. 🗑️  Remove Contact")
	fmt.Println("4. 📊 Show Send History")
	fmt.Println("5. 🧹 Clear Session")
	fmt.Println("0. 🚪 Exit")
	fmt.Println()
}

func (m *Menu) getInput(prompt string) string {
	fmt.Print(prompt)
	input, _ := m.reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func (m *Menu) pause() {
	fmt.Println("\nPress Enter to continue...")
	m.reader.ReadString('\n')
}

// sortedLabels loads the label map and returns its keys in stable order so
// numbered selections stay consistent between screens.
func (m *Menu) sortedLabels() ([]string, map[string]string, error) {
	labels, err := m.contacts.Load()
	if err != nil {
		return nil, nil, err
	}

	names := make([]string, 0, len(labels))
	for label := range labels {
		names = append(names, label)
	}
	sort.Strings(names)

	return names, labels, nil
}

func (m *Menu) listContacts() {
	m.clearScreen()
	fmt.Println("=== CONTACTS ===")

	names, labels, err := m.sortedLabels()
	if err != nil {
		fmt.Printf("Failed to load contacts: %v\n", err)
		m.pause()
		return
	}

	if len(names) == 0 {
		fmt.Println("📭 No contacts saved yet.")
		fmt.Println("💡 Use 'Add Contact' to save a label for a number")
	} else {
		fmt.Printf("📱 Total contacts: %d\n\n", len(names))
		for i, label := range names {
			fmt.Printf("%d. %s -> %s\n", i+1, label, labels[label])
		}
	}

	m.pause()
}

func (m *Menu) addContact() {
	m.clearScreen()
	fmt.Println("=== ADD CONTACT ===")

	label := m.getInput("Label (e.g. mom, office): ")
	if label == "" {
		fmt.Println("Label must not be empty!")
		m.pause()
		return
	}

	number := m.getInput("Phone number with country code: ")
	if number == "" {
		fmt.Println("Number must not be empty!")
		m.pause()
		return
	}

	if err := m.contacts.Add(label, number); err != nil {
		fmt.Printf("Failed to add contact: %v\n", err)
	} else {
		fmt.Printf("✅ Contact %q -> %s saved!\n", label, number)
		fmt.Printf("📁 Config: %s\n", m.contacts.Path())
	}

	m.pause()
}

func (m *Menu) removeContact() {
	m.clearScreen()
	fmt.Println("=== REMOVE CONTACT ===")

	names, labels, err := m.sortedLabels()
	if err != nil {
		fmt.Printf("Failed to load contacts: %v\n", err)
		m.pause()
		return
	}
	if len(names) == 0 {
		fmt.Println("No contacts saved yet.")
		m.pause()
		return
	}

	fmt.Println("Pick the contact to remove:")
	for i, label := range names {
		fmt.Printf("%d. %s -> %s\n", i+1, label, labels[label])
	}

	choice := m.getInput("Number (0 to cancel): ")
	if choice == "0" {
		return
	}

	index, err := strconv.Atoi(choice)
	if err != nil || index < 1 || index > len(names) {
		fmt.Println("Invalid choice!")
		m.pause()
		return
	}

	label := names[index-1]

	confirm := m.getInput(fmt.Sprintf("Really remove %q? (y/N): ", label))
	if strings.ToLower(confirm) == "y" || strings.ToLower(confirm) == "yes" {
		if err := m.contacts.Remove(label); err != nil {
			fmt.Printf("Failed to remove contact: %v\n", err)
		} else {
			fmt.Printf("Contact %q removed!\n", label)
		}
	} else {
		fmt.Println("Removal canceled.")
	}

	m.pause()
}

func (m *Menu) showHistory() {
	m.clearScreen()
	fmt.Println("=== SEND HISTORY ===")

	if m.history == nil {
		fmt.Println("Send history is not available.")
		m.pause()
		return
	}

	entries, err := m.history.Recent(20)
	if err != nil {
		fmt.Printf("Failed to load history: %v\n", err)
		m.pause()
		return
	}

	if len(entries) == 0 {
		fmt.Println("📭 No messages sent yet.")
	} else {
		for _, entry := range entries {
			status := "✅"
			if entry.Status == tools.StatusFailed {
				status = "❌"
			}

			recipient := entry.Recipient
			if entry.Label != "" && entry.Label != entry.Recipient {
				recipient = fmt.Sprintf("%s (%s)", entry.Label, entry.Recipient)
			}

			fmt.Printf("%s %s  %s\n", status, entry.CreatedAt.Format("2006-01-02 15:04"), recipient)
			fmt.Printf("   %s\n", entry.Message)
			if entry.Error != "" {
				fmt.Printf("   Error: %s\n", entry.Error)
			}
			fmt.Println()
		}
	}

	m.pause()
}

func (m *Menu) clearSession() {
	m.clearScreen()
	fmt.Println("=== CLEAR SESSION ===")

	fmt.Printf("Profile directory: %s\n", m.session.Dir())
	confirm := m.getInput("Really clear the saved WhatsApp Web login? (y/N): ")
	if strings.ToLower(confirm) == "y" || strings.ToLower(confirm) == "yes" {
		if err := m.session.Clear(); err != nil {
			fmt.Printf("Failed to clear session: %v\n", err)
		} else {
			fmt.Println("Session cleared. The next send will show a QR login.")
		}
	} else {
		fmt.Println("Clear canceled.")
	}

	m.pause()
}
