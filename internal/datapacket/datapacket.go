// Package datapacket serializes the frames sent over the publisher's two
// data channels and dispatches inbound ones to the right delegate
// callback. spec.md §4.3 calls the DataPacket wire format "a direct
// protobuf encoding" (unlike the signaling connection's JSON envelope,
// which is an external, consumed contract this package never touches).
// There is no protoc toolchain available to generate the usual
// protoc-gen-go types, so descriptor.go builds the equivalent
// FileDescriptorProto by hand and resolves it through protodesc into a
// real protoreflect.FileDescriptor; this file drives dynamicpb messages
// against that descriptor so Encode/Decode produce genuine protobuf
// wire bytes, matching the prior art's protobuf-backed DataPacket
// (livekit-server-sdk-go's engine.go, which unmarshals its DataPacket
// with proto.Unmarshal) rather than hand-rolling a binary codec.
package datapacket

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"vico_home/sessionengine/internal/domain"
)

// Kind is the wire tag for which reliability class produced a packet,
// numbered to match the Kind enum in datapacket.proto.
type Kind int32

const (
	KindReliable Kind = iota
	KindLossy
)

func KindFromReliability(r domain.Reliability) Kind {
	if r == domain.Lossy {
		return KindLossy
	}
	return KindReliable
}

// ValueKind distinguishes the two payload variants a DataPacket can
// carry. Unknown kinds on the wire are ignored for forward compatibility
// (spec.md §4.8/§6).
type ValueKind string

const (
	ValueUser    ValueKind = "user"
	ValueSpeaker ValueKind = "speaker"
)

// DataPacket is the frame sent over "_reliable"/"_lossy": a reliability
// tag plus exactly one of a user packet or a speaker update, mirroring
// the oneof value in datapacket.proto.
type DataPacket struct {
	Kind    Kind
	Value   ValueKind
	User    *domain.UserPacket
	Speaker *domain.SpeakerUpdate
}

// NewUserPacket builds a DataPacket carrying a user payload.
func NewUserPacket(r domain.Reliability, p domain.UserPacket) DataPacket {
	return DataPacket{Kind: KindFromReliability(r), Value: ValueUser, User: &p}
}

// NewSpeakerUpdate builds a DataPacket carrying a speaker update.
func NewSpeakerUpdate(r domain.Reliability, s domain.SpeakerUpdate) DataPacket {
	return DataPacket{Kind: KindFromReliability(r), Value: ValueSpeaker, Speaker: &s}
}

// Encode serializes a DataPacket as a protobuf message for submission to
// a data channel (spec.md §4.5 step 4: the DataChannel layer frames it
// as a single binary message regardless of payload shape).
func Encode(p DataPacket) ([]byte, error) {
	msg := dynamicpb.NewMessage(dataPacketDesc)
	msg.Set(fdKind, protoreflect.ValueOfEnum(protoreflect.EnumNumber(p.Kind)))

	switch {
	case p.User != nil:
		msg.Set(fdUser, protoreflect.ValueOfMessage(userPacketToProto(p.User)))
	case p.Speaker != nil:
		msg.Set(fdSpeaker, protoreflect.ValueOfMessage(speakerUpdateToProto(p.Speaker)))
	}

	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode data packet: %w", err)
	}
	return data, nil
}

// Decode parses protobuf bytes received on a data channel. Unknown
// oneof variants decode successfully but carry neither User nor
// Speaker — callers must check both before acting, and silently ignore
// the frame if neither is present (spec.md §4.8).
func Decode(data []byte) (DataPacket, error) {
	msg := dynamicpb.NewMessage(dataPacketDesc)
	if err := proto.Unmarshal(data, msg); err != nil {
		return DataPacket{}, fmt.Errorf("decode data packet: %w", err)
	}

	p := DataPacket{Kind: Kind(msg.Get(fdKind).Enum())}

	switch msg.WhichOneof(oneofValue) {
	case fdUser:
		p.Value = ValueUser
		u := userPacketFromProto(msg.Get(fdUser).Message())
		p.User = &u
	case fdSpeaker:
		p.Value = ValueSpeaker
		s := speakerUpdateFromProto(msg.Get(fdSpeaker).Message())
		p.Speaker = &s
	}

	return p, nil
}

func userPacketToProto(p *domain.UserPacket) *dynamicpb.Message {
	msg := dynamicpb.NewMessage(userPacketDesc)
	msg.Set(fdParticipantIdentity, protoreflect.ValueOfString(p.ParticipantIdentity))
	msg.Set(fdPayload, protoreflect.ValueOfBytes(p.Payload))
	msg.Set(fdTopic, protoreflect.ValueOfString(p.Topic))
	return msg
}

func userPacketFromProto(m protoreflect.Message) domain.UserPacket {
	return domain.UserPacket{
		ParticipantIdentity: m.Get(fdParticipantIdentity).String(),
		Payload:             m.Get(fdPayload).Bytes(),
		Topic:               m.Get(fdTopic).String(),
	}
}

func speakerUpdateToProto(s *domain.SpeakerUpdate) *dynamicpb.Message {
	msg := dynamicpb.NewMessage(speakerUpdateDesc)
	list := msg.Mutable(fdSpeakers).List()
	for _, sp := range s.Speakers {
		list.Append(protoreflect.ValueOfMessage(speakerToProto(sp)))
	}
	return msg
}

func speakerUpdateFromProto(m protoreflect.Message) domain.SpeakerUpdate {
	list := m.Get(fdSpeakers).List()
	speakers := make([]domain.Speaker, list.Len())
	for i := 0; i < list.Len(); i++ {
		speakers[i] = speakerFromProto(list.Get(i).Message())
	}
	return domain.SpeakerUpdate{Speakers: speakers}
}

func speakerToProto(s domain.Speaker) *dynamicpb.Message {
	msg := dynamicpb.NewMessage(speakerDesc)
	msg.Set(fdSID, protoreflect.ValueOfString(s.ParticipantSID))
	msg.Set(fdLevel, protoreflect.ValueOfFloat32(s.Level))
	msg.Set(fdActive, protoreflect.ValueOfBool(s.Active))
	return msg
}

func speakerFromProto(m protoreflect.Message) domain.Speaker {
	return domain.Speaker{
		ParticipantSID: m.Get(fdSID).String(),
		Level:          float32(m.Get(fdLevel).Float()),
		Active:         m.Get(fdActive).Bool(),
	}
}
