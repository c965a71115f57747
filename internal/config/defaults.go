package config

const defaultWelcome = "Hi! I keep the lead database tidy.\n\n" +
	"Send /check to look up a lead, /add to register a new one, " +
	"or /help for the full command list."

const defaultHelp = `Available commands:

/check — look up a lead by phone, email, Telegram, Facebook or name
/add — register a new lead step by step
/edit — change a field on an existing lead (PIN required)
/tag — set the manager tag on all of a manager's leads (PIN required)
/transfer — move all leads from one manager to another (PIN required)
/cancel — abandon the current operation

While filling in a lead you can reply "skip" to leave an optional field
empty, or "quit" to abandon the whole operation.`
