package packet

import "fmt"

// Tag is the command or response code carried in byte 1 of a frame.
type Tag byte

// Role tells whether a tag is sent by the host, answered by the controller,
// or reports a failure.
type Role uint8

const (
	RoleCommand Role = iota
	RoleResponse
	RoleError
)

func (r Role) String() string {
	switch r {
	case RoleCommand:
		return "command"
	case RoleResponse:
		return "response"
	case RoleError:
		return "error"
	default:
		return "unknown"
	}
}

// Target packets.
const (
	TagSMBReadByte    Tag = 0x00
	TagSMBReadWord    Tag = 0x01
	TagSMBReadBlock   Tag = 0x02
	TagSMBWriteByte   Tag = 0x03
	TagSMBWriteWord   Tag = 0x04
	TagSMBWriteBlock  Tag = 0x05
	TagSMBCommand     Tag = 0x06
	TagI2CReadData    Tag = 0x0D
	TagI2CWriteData   Tag = 0x0E
	TagHDQ8Read       Tag = 0x12
	TagHDQ8Write      Tag = 0x13
	TagHDQ16Read      Tag = 0x14
	TagHDQ16Write     Tag = 0x15
	TagDQRead         Tag = 0x16
	TagDQWrite        Tag = 0x17
	TagHDQ8Break      Tag = 0x1B
	TagEERead         Tag = 0x1D
	TagEEWrite        Tag = 0x1E
	TagSDQWrite       Tag = 0x21
	TagSDQRead        Tag = 0x23
	TagSDQReadBlock   Tag = 0x25
	TagSDQWriteBlock  Tag = 0x27
	TagSDQPulse       Tag = 0x28
	TagSDQWriteFlex   Tag = 0x29
	TagUARTTx         Tag = 0x2A
	TagUARTRx         Tag = 0x2B
	TagSPITxRx        Tag = 0x2C
	TagHDQ8WriteBlock Tag = 0x2D
	TagHDQ8WriteNC    Tag = 0x2E
	TagHDQ8ReadBlock  Tag = 0x2F
	TagI2CLightRead   Tag = 0x30
	TagI2CLightWrite  Tag = 0x31
	TagI2CLightStop   Tag = 0x32
	TagI2CTransaction Tag = 0x33
)

// Controller packets.
const (
	TagGetVersion         Tag = 0x80
	TagReturnToROMReq     Tag = 0x86
	TagReturnToROM        Tag = 0x87
	TagWait               Tag = 0x88
	TagBoardName          Tag = 0x90
	TagReset              Tag = 0x91
	TagBoardType          Tag = 0x96
	TagPWMConfig          Tag = 0x9A
	TagUARTParam          Tag = 0xB1
	TagSPISetup           Tag = 0xB2
	TagVVODSetVoltage     Tag = 0xB3
	TagVVODState          Tag = 0xB4
	TagVPUVSetVoltage     Tag = 0xB5
	TagGPIO               Tag = 0xB7
	TagSPISetBitrate      Tag = 0xB8
	TagSPISet             Tag = 0xB9
	TagSPISetCS           Tag = 0xBA
	TagI2CLightTiming     Tag = 0xBB
	TagSetVoutTimeout     Tag = 0xBC
	TagSetCharacteristics Tag = 0xBD
	TagSetI2CSpeed        Tag = 0xEE
	TagSetSMBSpeed        Tag = 0xEF
)

// Response packets. I2C_RD_DATA is documented to answer with 0x4E, but the
// firmware sends 0x52 like the other I2C reads.
const (
	TagSMBReadByteRsp     Tag = 0x40
	TagSMBReadWordRsp     Tag = 0x41
	TagSMBReadBlockRsp    Tag = 0x42
	TagHDQ8ReadRsp        Tag = 0x4A
	TagHDQ16ReadRsp       Tag = 0x4B
	TagDQReadRsp          Tag = 0x4C
	TagI2CReadRsp         Tag = 0x52
	TagSDQReadRsp         Tag = 0x53
	TagSDQReadBlockRsp    Tag = 0x54
	TagUARTRxRsp          Tag = 0x59
	TagSPITxRxRsp         Tag = 0x5A
	TagHDQ8ReadBlockRsp   Tag = 0x5B
	TagVersionRsp         Tag = 0xC0
	TagReturnToROMRsp     Tag = 0xC6
	TagBoardNameRsp       Tag = 0xC8
	TagGPIORsp            Tag = 0xCC
	TagVVODStateRsp       Tag = 0xCD
	TagCharacteristicsRsp Tag = 0xCE
	TagBoardTypeRsp       Tag = 0xCF

	TagError    Tag = 0xC3
	TagSMBError Tag = 0x46
)

// Info describes one entry of the tag table.
type Info struct {
	Name string
	Role Role
	// Response is the tag the controller answers a command with. It is only
	// meaningful when HasResponse is set.
	Response    Tag
	HasResponse bool
}

func cmd(name string) Info { return Info{Name: name, Role: RoleCommand} }

func req(name string, rsp Tag) Info {
	return Info{Name: name, Role: RoleCommand, Response: rsp, HasResponse: true}
}

func rsp(name string) Info { return Info{Name: name, Role: RoleResponse} }

var tags = map[Tag]Info{
	TagSMBReadByte:    req("SMB_RD_BYTE", TagSMBReadByteRsp),
	TagSMBReadWord:    req("SMB_RD_WORD", TagSMBReadWordRsp),
	TagSMBReadBlock:   req("SMB_RD_BLOCK", TagSMBReadBlockRsp),
	TagSMBWriteByte:   cmd("SMB_WR_BYTE"),
	TagSMBWriteWord:   cmd("SMB_WR_WORD"),
	TagSMBWriteBlock:  cmd("SMB_WR_BLOCK"),
	TagSMBCommand:     cmd("SMB_CMD"),
	TagI2CReadData:    req("I2C_RD_DATA", TagI2CReadRsp),
	TagI2CWriteData:   cmd("I2C_WR_DATA"),
	TagHDQ8Read:       req("HDQ8_RD", TagHDQ8ReadRsp),
	TagHDQ8Write:      cmd("HDQ8_WR"),
	TagHDQ16Read:      req("HDQ16_RD", TagHDQ16ReadRsp),
	TagHDQ16Write:     cmd("HDQ16_WR"),
	TagDQRead:         req("DQ_RD", TagDQReadRsp),
	TagDQWrite:        cmd("DQ_WR"),
	TagHDQ8Break:      cmd("HDQ8_BREAK"),
	TagEERead:         req("EE_RD_BLOCK", TagI2CReadRsp),
	TagEEWrite:        cmd("EE_WR_BLOCK"),
	TagSDQWrite:       cmd("SDQ_WR"),
	TagSDQRead:        req("SDQ_RD", TagSDQReadRsp),
	TagSDQReadBlock:   req("SDQ_RD_BLOCK", TagSDQReadBlockRsp),
	TagSDQWriteBlock:  cmd("SDQ_WR_BLOCK"),
	TagSDQPulse:       cmd("SDQ_PULSE"),
	TagSDQWriteFlex:   cmd("SDQ_WR_FLXBLK"),
	TagUARTTx:         cmd("UART_TX"),
	TagUARTRx:         req("UART_RX", TagUARTRxRsp),
	TagSPITxRx:        req("SPI_TX_RX", TagSPITxRxRsp),
	TagHDQ8WriteBlock: cmd("HDQ8_WR_BLOCK"),
	TagHDQ8WriteNC:    cmd("HDQ8_WR_NC_BLOCK"),
	TagHDQ8ReadBlock:  req("HDQ8_RD_BLOCK", TagHDQ8ReadBlockRsp),
	TagI2CLightRead:   cmd("I2C_LIGHT_RD_DATA"),
	TagI2CLightWrite:  cmd("I2C_LIGHT_WR_DATA"),
	TagI2CLightStop:   cmd("I2C_LIGHT_STOP"),
	TagI2CTransaction: req("I2C_TRANSACTION", TagI2CReadRsp),

	TagGetVersion:         req("GET_VERSION", TagVersionRsp),
	TagReturnToROMReq:     req("RETURN_TO_ROM_RQ", TagReturnToROMRsp),
	TagReturnToROM:        cmd("RETURN_TO_ROM"),
	TagWait:               cmd("WAIT"),
	TagBoardName:          req("BOARD_NAME", TagBoardNameRsp),
	TagReset:              cmd("RESET"),
	TagBoardType:          req("BOARD_TYPE", TagBoardTypeRsp),
	TagPWMConfig:          cmd("PWM_CONFIG"),
	TagUARTParam:          cmd("UART_PARAM"),
	TagSPISetup:           cmd("SPI_SETUP"),
	TagVVODSetVoltage:     cmd("VVOD_SET_VOLTAGE"),
	TagVVODState:          req("VVOD_STATE", TagVVODStateRsp),
	TagVPUVSetVoltage:     cmd("VPUV_SET_VOLTAGE"),
	TagGPIO:               req("GPIO_RW", TagGPIORsp),
	TagSPISetBitrate:      cmd("SPI_SET_BITRATE"),
	TagSPISet:             cmd("SPI_SET"),
	TagSPISetCS:           cmd("SPI_SET_CS"),
	TagI2CLightTiming:     cmd("SET_I2C_LIGHT_TIMING"),
	TagSetVoutTimeout:     cmd("SET_VOUT_WITH_TIMEOUT"),
	TagSetCharacteristics: req("SET_CHARACTERISTICS", TagCharacteristicsRsp),
	TagSetI2CSpeed:        cmd("SET_I2C_SPEED"),
	TagSetSMBSpeed:        cmd("SET_SMB_SPEED"),

	TagSMBReadByteRsp:     rsp("SMB_RD_BYTE_RSP"),
	TagSMBReadWordRsp:     rsp("SMB_RD_WORD_RSP"),
	TagSMBReadBlockRsp:    rsp("SMB_RD_BLOCK_RSP"),
	TagHDQ8ReadRsp:        rsp("HDQ8_RD_RSP"),
	TagHDQ16ReadRsp:       rsp("HDQ16_RD_RSP"),
	TagDQReadRsp:          rsp("DQ_RD_RSP"),
	TagI2CReadRsp:         rsp("I2C_RD_RSP"),
	TagSDQReadRsp:         rsp("SDQ_RD_RSP"),
	TagSDQReadBlockRsp:    rsp("SDQ_RD_BLOCK_RSP"),
	TagUARTRxRsp:          rsp("UART_RX_RSP"),
	TagSPITxRxRsp:         rsp("SPI_TX_RX_RSP"),
	TagHDQ8ReadBlockRsp:   rsp("HDQ8_RD_BLOCK_RSP"),
	TagVersionRsp:         rsp("GET_VERSION_RSP"),
	TagReturnToROMRsp:     rsp("RETURN_TO_ROM_RQ_RSP"),
	TagBoardNameRsp:       rsp("BOARD_NAME_RSP"),
	TagGPIORsp:            rsp("GPIO_RW_RSP"),
	TagVVODStateRsp:       rsp("VVOD_STATE_RSP"),
	TagCharacteristicsRsp: rsp("SET_CHARACTERISTICS_RSP"),
	TagBoardTypeRsp:       rsp("BOARD_TYPE_RSP"),

	TagError:    {Name: "ERROR", Role: RoleError},
	TagSMBError: {Name: "SMB_ERROR", Role: RoleError},
}

// Lookup returns the table entry for a wire code.
func Lookup(t Tag) (Info, bool) {
	info, ok := tags[t]
	return info, ok
}

// ResponseTag returns the tag the controller answers cmd with. The second
// result is false for fire-and-forget commands and for unknown tags.
func ResponseTag(cmd Tag) (Tag, bool) {
	info, ok := tags[cmd]
	if !ok || info.Role != RoleCommand || !info.HasResponse {
		return 0, false
	}
	return info.Response, true
}

// IsError reports whether t is one of the controller's error tags.
func (t Tag) IsError() bool {
	return t == TagError || t == TagSMBError
}

func (t Tag) String() string {
	if info, ok := tags[t]; ok {
		return info.Name
	}
	return fmt.Sprintf("UNKNOWN(0x%02X)", byte(t))
}
