package messages

// Protocol family identifiers, from linux/netlink.h. The codec treats
// families as opaque numbers; these cover the families a socket is
// commonly opened with.
const (
	FamilyRoute         = 0
	FamilyUnused        = 1
	FamilyUsersock      = 2
	FamilyFirewall      = 3
	FamilySockDiag      = 4
	FamilyNflog         = 5
	FamilyXfrm          = 6
	FamilySelinux       = 7
	FamilyIscsi         = 8
	FamilyAudit         = 9
	FamilyFibLookup     = 10
	FamilyConnector     = 11
	FamilyNetfilter     = 12
	FamilyIp6Fw         = 13
	FamilyDnrtmsg       = 14
	FamilyKobjectUevent = 15
	FamilyGeneric       = 16
	FamilyScsitransport = 18
	FamilyEcryptfs      = 19
	FamilyRdma          = 20
	FamilyCrypto        = 21
)

// Standard message types valid for any family, from linux/netlink.h.
// Values below TypeMinProtocol are reserved for control messages.
const (
	TypeNoop    uint16 = 0x1
	TypeError   uint16 = 0x2
	TypeDone    uint16 = 0x3
	TypeOverrun uint16 = 0x4

	TypeMinProtocol uint16 = 0x10
)

// Header flag bits, from linux/netlink.h.
const (
	FlagRequest uint16 = 0x1
	FlagMulti   uint16 = 0x2
	FlagAck     uint16 = 0x4
	FlagEcho    uint16 = 0x8

	FlagRoot   uint16 = 0x100
	FlagMatch  uint16 = 0x200
	FlagAtomic uint16 = 0x400
	FlagDump          = FlagRoot | FlagMatch

	FlagReplace uint16 = 0x100
	FlagExcl    uint16 = 0x200
	FlagCreate  uint16 = 0x400
	FlagAppend  uint16 = 0x800
)

// Generic netlink controller identifiers, from linux/genetlink.h.
const (
	GenlIDCtrl uint16 = 0x10

	CtrlVersion uint8 = 1
)

// Controller commands for GenlHeader.Cmd.
const (
	CtrlCmdUnspec uint8 = iota
	CtrlCmdNewFamily
	CtrlCmdDelFamily
	CtrlCmdGetFamily
	CtrlCmdNewOps
	CtrlCmdDelOps
	CtrlCmdGetOps
	CtrlCmdNewMcastGrp
	CtrlCmdDelMcastGrp
	CtrlCmdGetMcastGrp
)

// Controller attribute types.
const (
	CtrlAttrUnspec uint16 = iota
	CtrlAttrFamilyID
	CtrlAttrFamilyName
	CtrlAttrVersion
	CtrlAttrHdrsize
	CtrlAttrMaxattr
	CtrlAttrOps
	CtrlAttrMcastGroups
)

// Controller multicast-group attribute types, nested under
// CtrlAttrMcastGroups.
const (
	CtrlAttrMcastGrpUnspec uint16 = iota
	CtrlAttrMcastGrpName
	CtrlAttrMcastGrpID
)
