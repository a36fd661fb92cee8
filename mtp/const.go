package mtp

// Operation codes. The MTPZ vendor operations (0x1000-0x1002) and their
// probe range (0x1000..0x1004) are handled by package mtpz; everything else
// here is the core PTP/MTP operation set plus the Microsoft/Zune object
// property extensions this client depends on.
const (
	OC_GetDeviceInfo        = 0x1001
	OC_OpenSession          = 0x1002
	OC_CloseSession         = 0x1003
	OC_GetStorageIDs        = 0x1004
	OC_GetStorageInfo       = 0x1005
	OC_GetNumObjects        = 0x1006
	OC_GetObjectHandles     = 0x1007
	OC_GetObjectInfo        = 0x1008
	OC_GetObject            = 0x1009
	OC_GetThumb             = 0x100A
	OC_DeleteObject         = 0x100B
	OC_SendObjectInfo       = 0x100C
	OC_SendObject           = 0x100D
	OC_SetObjectProtection  = 0x1012
	OC_GetDevicePropDesc    = 0x1014
	OC_GetDevicePropValue   = 0x1015
	OC_SetDevicePropValue   = 0x1016
	OC_ResetDevicePropValue = 0x1017
	OC_GetPartialObject     = 0x101B

	OC_MTPZ_Leg1 = 0x1000
	OC_MTPZ_Leg2 = 0x1001
	OC_MTPZ_Leg3 = 0x1002

	OC_MTP_GetObjectPropsSupported = 0x9801
	OC_MTP_GetObjectPropDesc       = 0x9802
	OC_MTP_GetObjectPropValue      = 0x9803
	OC_MTP_SetObjectPropValue      = 0x9804
	OC_MTP_GetObjectPropList       = 0x9805
	OC_MTP_SetObjectPropList       = 0x9806
	OC_MTP_SendObjectPropList      = 0x9808
	OC_MTP_GetObjectReferences     = 0x9810
	OC_MTP_SetObjectReferences     = 0x9811

	// Referred to in the Zune library coordinator as the track/artist
	// registration probe; tolerated as an optional vendor extension.
	OC_ZUNE_ValidateArtistGuid = 0x922A
)

// Response codes. OK (0x2001) and the handful named verbatim are the ones
// this client surfaces specially; NoValidObjectInfo is 0x2007 per the
// observed SendObjectInfo/SendObject pairing violation.
const (
	RC_Undefined              = 0x2000
	RC_OK                     = 0x2001
	RC_GeneralError           = 0x2002
	RC_SessionNotOpen         = 0x2003
	RC_InvalidTransactionID   = 0x2004
	RC_OperationNotSupported  = 0x2005
	RC_ParameterNotSupported  = 0x2006
	RC_NoValidObjectInfo      = 0x2007
	RC_InvalidStorageID       = 0x2008
	RC_ObjectNotFound         = 0x2009
	RC_DevicePropNotSupported = 0x200A
	RC_InvalidObjectFormatCode = 0x200B
	RC_StoreFull              = 0x200C
	RC_ObjectWriteProtected   = 0x200D
	RC_StoreReadOnly          = 0x200E
	RC_AccessDenied           = 0x200F
	RC_NoThumbnailPresent     = 0x2010
	RC_InvalidParentObject    = 0x201A
	RC_InvalidDevicePropFormat = 0x201B
	RC_InvalidDevicePropValue = 0x201C
	RC_InvalidParameter       = 0x201D
	RC_SessionAlreadyOpened   = 0x201E

	RC_MTP_Invalid_ObjectPropCode    = 0xA801
	RC_MTP_Invalid_ObjectProp_Format = 0xA802
	RC_MTP_Invalid_ObjectProp_Value  = 0xA803
	RC_MTP_Invalid_ObjectReference   = 0xA804
	RC_MTP_ObjectProp_Not_Supported  = 0xA80A
)

// RCNames renders a response code the way print.go's name tables did, for
// human-readable error formatting.
var RCNames = map[uint16]string{
	RC_OK:                     "OK",
	RC_GeneralError:           "GeneralError",
	RC_SessionNotOpen:         "SessionNotOpen",
	RC_InvalidTransactionID:   "InvalidTransactionID",
	RC_OperationNotSupported:  "OperationNotSupported",
	RC_ParameterNotSupported:  "ParameterNotSupported",
	RC_NoValidObjectInfo:      "NoValidObjectInfo",
	RC_InvalidStorageID:       "InvalidStorageID",
	RC_ObjectNotFound:         "ObjectNotFound",
	RC_DevicePropNotSupported: "DevicePropNotSupported",
	RC_StoreFull:              "StoreFull",
	RC_ObjectWriteProtected:   "ObjectWriteProtected",
	RC_StoreReadOnly:          "StoreReadOnly",
	RC_AccessDenied:           "AccessDenied",
	RC_SessionAlreadyOpened:   "SessionAlreadyOpened",
}

// Storage types and filesystem types, used by StorageInfo.IsHierarchical /
// IsRemovable.
const (
	ST_Undefined    = 0x0000
	ST_FixedROM     = 0x0001
	ST_RemovableROM = 0x0002
	ST_FixedRAM     = 0x0003
	ST_RemovableRAM = 0x0004

	FST_Undefined           = 0x0000
	FST_GenericFlat         = 0x0001
	FST_GenericHierarchical = 0x0002
	FST_DCF                 = 0x0003
)

// Object format codes. OFC_Association is the standard "directory" format;
// the audio-library formats follow the Microsoft/Zune vendor extension.
// OFC_MTP_Artist's exact vendor value was not present in any retrieved
// source file; it is chosen adjacent to the other MTP audio formats and is
// otherwise opaque to this client (see DESIGN.md).
const (
	OFC_Undefined              = 0x3000
	OFC_Association            = 0x3001
	OFC_MTP_AbstractAudioAlbum = 0xBA03
	OFC_MTP_Artist             = 0xBA05
	OFC_ZUNE_ArtistMetadata    = 0xB218
)

// Object property codes used by the property-list grammar and the library
// coordinator.
const (
	OPC_StorageID                  = 0xDC01
	OPC_ObjectFormat                = 0xDC02
	OPC_ObjectFileName              = 0xDC07
	OPC_DateCreated                 = 0xDC08
	OPC_DateModified                = 0xDC09
	OPC_ParentObject                = 0xDC0B
	OPC_Name                        = 0xDC44
	OPC_ArtistId                    = 0xDC45
	OPC_Artist                      = 0xDC46
	OPC_DateAuthored                = 0xDC47
	OPC_RepresentativeSampleFormat  = 0xDC81
	OPC_RepresentativeSampleSize    = 0xDC82
	OPC_RepresentativeSampleData    = 0xDC86
	OPC_Track                       = 0xDC8B
	OPC_Genre                       = 0xDC8C
	OPC_AlbumName                   = 0xDC9A
	OPC_BuyNowURL                   = 0xDC9C
	OPC_MediaGUID                   = 0xDD72

	// The Zune artist-metadata object's 128-bit GUID property, one of the
	// four checked via GetObjectPropDesc probes before upload (see the
	// EnableGUIDArtifact feature flag in package library).
	OPC_ZUNE_ArtistGUID = 0xDA97

	// Zune_CollectionID, the first of the four properties probed and
	// written on the metadata artist object (0xB218).
	OPC_ZUNE_CollectionID = 0xDAB0

	OPC_All = 0xFFFFFFFF
)

// Device property codes used outside the MTPZ handshake itself.
const (
	DPC_SynchronizationPartner = 0xD401
	DPC_ZUNE_PCGUID            = 0xD220
)

// Reserved object/storage/parent identifiers.
const (
	ObjectIDRoot    = 0x00000000
	ObjectIDAll     = 0xFFFFFFFF
	StorageIDAll    = 0xFFFFFFFF
	ObjectFormatAny = 0x0000
)
