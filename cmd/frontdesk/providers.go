package main

// Channel adapter blank imports. Each import activates a self-registering
// adapter; add new channels here as they are implemented.

import (
	_ "github.com/frontdeskhq/frontdesk/internal/adapter/messenger"
	_ "github.com/frontdeskhq/frontdesk/internal/adapter/telegram"
	_ "github.com/frontdeskhq/frontdesk/internal/adapter/website"
	_ "github.com/frontdeskhq/frontdesk/internal/adapter/whatsapp"
)
