package datapacket

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

// wireFile is the FileDescriptorProto equivalent of datapacket.proto,
// built in Go rather than by protoc (no protobuf compiler is available
// in this build) and resolved into a real protoreflect.FileDescriptor
// below. Keep this literal in sync with datapacket.proto by hand.
var wireFile = &descriptorpb.FileDescriptorProto{
	Name:    proto.String("datapacket.proto"),
	Package: proto.String("sessionengine.datapacket"),
	Syntax:  proto.String("proto3"),
	EnumType: []*descriptorpb.EnumDescriptorProto{
		{
			Name: proto.String("Kind"),
			Value: []*descriptorpb.EnumValueDescriptorProto{
				{Name: proto.String("RELIABLE"), Number: proto.Int32(0)},
				{Name: proto.String("LOSSY"), Number: proto.Int32(1)},
			},
		},
	},
	MessageType: []*descriptorpb.DescriptorProto{
		{
			Name: proto.String("Speaker"),
			Field: []*descriptorpb.FieldDescriptorProto{
				{
					Name:   proto.String("sid"),
					Number: proto.Int32(1),
					Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
					Type:   descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
				},
				{
					Name:   proto.String("level"),
					Number: proto.Int32(2),
					Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
					Type:   descriptorpb.FieldDescriptorProto_TYPE_FLOAT.Enum(),
				},
				{
					Name:   proto.String("active"),
					Number: proto.Int32(3),
					Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
					Type:   descriptorpb.FieldDescriptorProto_TYPE_BOOL.Enum(),
				},
			},
		},
		{
			Name: proto.String("SpeakerUpdate"),
			Field: []*descriptorpb.FieldDescriptorProto{
				{
					Name:     proto.String("speakers"),
					Number:   proto.Int32(1),
					Label:    descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
					Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
					TypeName: proto.String(".sessionengine.datapacket.Speaker"),
				},
			},
		},
		{
			Name: proto.String("UserPacket"),
			Field: []*descriptorpb.FieldDescriptorProto{
				{
					Name:   proto.String("participant_identity"),
					Number: proto.Int32(1),
					Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
					Type:   descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
				},
				{
					Name:   proto.String("payload"),
					Number: proto.Int32(2),
					Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
					Type:   descriptorpb.FieldDescriptorProto_TYPE_BYTES.Enum(),
				},
				{
					Name:   proto.String("topic"),
					Number: proto.Int32(3),
					Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
					Type:   descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
				},
			},
		},
		{
			Name: proto.String("DataPacket"),
			Field: []*descriptorpb.FieldDescriptorProto{
				{
					Name:     proto.String("kind"),
					Number:   proto.Int32(1),
					Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
					Type:     descriptorpb.FieldDescriptorProto_TYPE_ENUM.Enum(),
					TypeName: proto.String(".sessionengine.datapacket.Kind"),
				},
				{
					Name:       proto.String("user"),
					Number:     proto.Int32(2),
					Label:      descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
					Type:       descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
					TypeName:   proto.String(".sessionengine.datapacket.UserPacket"),
					OneofIndex: proto.Int32(0),
				},
				{
					Name:       proto.String("speaker"),
					Number:     proto.Int32(3),
					Label:      descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
					Type:       descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
					TypeName:   proto.String(".sessionengine.datapacket.SpeakerUpdate"),
					OneofIndex: proto.Int32(0),
				},
			},
			OneofDecl: []*descriptorpb.OneofDescriptorProto{
				{Name: proto.String("value")},
			},
		},
	},
}

// Resolved message descriptors, populated once at package init from
// wireFile. dynamicpb.NewMessage(desc) turns each of these into a real
// proto.Message backed by this descriptor, without needing
// protoc-gen-go generated code.
var (
	dataPacketDesc    protoreflect.MessageDescriptor
	userPacketDesc    protoreflect.MessageDescriptor
	speakerUpdateDesc protoreflect.MessageDescriptor
	speakerDesc       protoreflect.MessageDescriptor

	fdKind     protoreflect.FieldDescriptor
	fdUser     protoreflect.FieldDescriptor
	fdSpeaker  protoreflect.FieldDescriptor
	oneofValue protoreflect.OneofDescriptor

	fdSpeakers protoreflect.FieldDescriptor

	fdParticipantIdentity protoreflect.FieldDescriptor
	fdPayload             protoreflect.FieldDescriptor
	fdTopic               protoreflect.FieldDescriptor

	fdSID    protoreflect.FieldDescriptor
	fdLevel  protoreflect.FieldDescriptor
	fdActive protoreflect.FieldDescriptor
)

func init() {
	file, err := protodesc.NewFile(wireFile, nil)
	if err != nil {
		panic("datapacket: invalid wire descriptor: " + err.Error())
	}

	messages := file.Messages()

	dataPacketDesc = messages.ByName("DataPacket")
	userPacketDesc = messages.ByName("UserPacket")
	speakerUpdateDesc = messages.ByName("SpeakerUpdate")
	speakerDesc = messages.ByName("Speaker")

	fdKind = dataPacketDesc.Fields().ByName("kind")
	fdUser = dataPacketDesc.Fields().ByName("user")
	fdSpeaker = dataPacketDesc.Fields().ByName("speaker")
	oneofValue = dataPacketDesc.Oneofs().ByName("value")

	fdSpeakers = speakerUpdateDesc.Fields().ByName("speakers")

	fdParticipantIdentity = userPacketDesc.Fields().ByName("participant_identity")
	fdPayload = userPacketDesc.Fields().ByName("payload")
	fdTopic = userPacketDesc.Fields().ByName("topic")

	fdSID = speakerDesc.Fields().ByName("sid")
	fdLevel = speakerDesc.Fields().ByName("level")
	fdActive = speakerDesc.Fields().ByName("active")
}
