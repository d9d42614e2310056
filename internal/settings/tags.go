package settings

// Element names in the settings document. Each is also the change tag
// raised by setters on the matching entity.
const (
	TagSettings         = "settings"
	TagDeviceManager    = "devicemanager"
	TagDevice           = "device"
	TagRegisterTemplate = "registertemplate"
	TagBlockMessage     = "blockmessage"
	TagRegister         = "register"
	TagSerialPort       = "serialport"
	TagDatabase         = "database"
	TagConversation     = "conversation"
	TagMessage          = "message"
	TagAction           = "action"
	TagParameter        = "parameter"
)
