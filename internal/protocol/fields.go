package protocol

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/brinkworld/voxelcore/internal/vec"
)

// Field-level read/write helpers, little-endian throughout (matching
// the frame length prefix) — adapted from the teacher's own hand-rolled
// WriteUint32/ReadUint32 helpers, generalized to the full field set a
// tagged-union packet body needs and switched from big- to
// little-endian for a single consistent byte order across header and
// body.

func writeUint8(b []byte, v uint8) []byte  { return append(b, v) }
func writeUint16(b []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(b, tmp[:]...)
}
func writeUint32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}
func writeUint64(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}
func writeInt32(b []byte, v int32) []byte { return writeUint32(b, uint32(v)) }
func writeFloat32(b []byte, v float32) []byte {
	return writeUint32(b, math.Float32bits(v))
}
func writeFloat64(b []byte, v float64) []byte {
	return writeUint64(b, math.Float64bits(v))
}
func writeString(b []byte, s string) []byte {
	b = writeUint16(b, uint16(len(s)))
	return append(b, s...)
}
func writeVec3(b []byte, v vec.Vec3) []byte {
	b = writeFloat64(b, v.X)
	b = writeFloat64(b, v.Y)
	b = writeFloat64(b, v.Z)
	return b
}
func writeQuat(b []byte, q vec.Quat) []byte {
	b = writeFloat64(b, q.X)
	b = writeFloat64(b, q.Y)
	b = writeFloat64(b, q.Z)
	b = writeFloat64(b, q.W)
	return b
}

// reader walks a decoded packet body left to right, erroring on
// truncation instead of panicking on an out-of-range slice.
type reader struct {
	buf []byte
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf) < n {
		r.err = fmt.Errorf("protocol: truncated field (need %d, have %d)", n, len(r.buf))
		return nil
	}
	out := r.buf[:n]
	r.buf = r.buf[n:]
	return out
}

func (r *reader) uint8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}
func (r *reader) uint16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}
func (r *reader) uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}
func (r *reader) uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}
func (r *reader) int32() int32     { return int32(r.uint32()) }
func (r *reader) float32() float32 { return math.Float32frombits(r.uint32()) }
func (r *reader) float64() float64 { return math.Float64frombits(r.uint64()) }
func (r *reader) string() string {
	n := r.uint16()
	b := r.take(int(n))
	return string(b)
}
func (r *reader) vec3() vec.Vec3 {
	return vec.Vec3{X: r.float64(), Y: r.float64(), Z: r.float64()}
}
func (r *reader) quat() vec.Quat {
	return vec.Quat{X: r.float64(), Y: r.float64(), Z: r.float64(), W: r.float64()}
}

// appendFields serializes pkt's fields (everything after the tag byte)
// onto b.
func appendFields(b []byte, pkt Packet) ([]byte, error) {
	switch p := pkt.(type) {
	case Authorization:
		return writeString(b, p.Token), nil
	case AuthorizationAccepted:
		return writeUint64(b, p.ObjectID), nil
	case PlayerMove:
		return writeVec3(b, p.Pos), nil
	case PlayerRotate:
		return writeQuat(b, p.Rot), nil
	case GameObjectMoved:
		b = writeUint64(b, p.ID)
		return writeVec3(b, p.Pos), nil
	case GameObjectRotated:
		b = writeUint64(b, p.ID)
		return writeQuat(b, p.Rot), nil
	case SpawnGameObject:
		b = writeUint64(b, p.ID)
		b = writeVec3(b, p.Pos)
		b = writeQuat(b, p.Rot)
		b = writeUint8(b, uint8(p.Kind))
		b = writeUint32(b, p.ItemID)
		b = writeUint16(b, p.ItemQty)
		return writeString(b, p.Username), nil
	case DespawnGameObject:
		return writeUint64(b, p.ID), nil
	case BlockUpdate:
		b = writeInt32(b, p.X)
		b = writeInt32(b, p.Y)
		b = writeInt32(b, p.Z)
		return writeUint32(b, p.ID), nil
	case PlaceBlock:
		b = writeInt32(b, p.X)
		b = writeInt32(b, p.Y)
		return writeInt32(b, p.Z), nil
	case DestroyBlock:
		b = writeInt32(b, p.X)
		b = writeInt32(b, p.Y)
		return writeInt32(b, p.Z), nil
	case FullChunkUpdate:
		b = writeInt32(b, p.X)
		b = writeInt32(b, p.Y)
		b = writeInt32(b, p.Z)
		for _, id := range p.Data {
			b = writeUint32(b, id)
		}
		return b, nil
	case PartialChunkUpdate:
		b = writeUint32(b, p.ID)
		b = writeUint32(b, p.Part)
		b = writeInt32(b, p.X)
		b = writeInt32(b, p.Y)
		b = writeInt32(b, p.Z)
		for _, id := range p.Data {
			b = writeUint32(b, id)
		}
		return b, nil
	case AcknowledgeChunk:
		b = writeInt32(b, p.X)
		b = writeInt32(b, p.Y)
		return writeInt32(b, p.Z), nil
	case UnloadAllChunks:
		return b, nil
	case ServerState:
		return writeUint8(b, uint8(p.State)), nil
	case ChatSent:
		return writeString(b, p.Message), nil
	case UpdateInventory:
		for _, slot := range p.Slots {
			b = writeUint32(b, slot.ItemID)
			b = writeUint16(b, slot.Count)
		}
		return b, nil
	case Ping:
		return writeUint64(b, p.Code), nil
	case Pong:
		return writeUint64(b, p.Code), nil
	case Disconnect:
		return writeUint8(b, uint8(p.Reason)), nil
	default:
		return nil, fmt.Errorf("protocol: unknown packet type %T", pkt)
	}
}

// decodeFields parses a packet body (everything after the tag byte)
// given its tag.
func decodeFields(tag Tag, body []byte) (Packet, error) {
	r := &reader{buf: body}
	pkt, err := decodeByTag(tag, r)
	if err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	return pkt, nil
}

func decodeByTag(tag Tag, r *reader) (Packet, error) {
	switch tag {
	case TagAuthorization:
		return Authorization{Token: r.string()}, nil
	case TagAuthorizationAccepted:
		return AuthorizationAccepted{ObjectID: r.uint64()}, nil
	case TagPlayerMove:
		return PlayerMove{Pos: r.vec3()}, nil
	case TagPlayerRotate:
		return PlayerRotate{Rot: r.quat()}, nil
	case TagGameObjectMoved:
		id := r.uint64()
		return GameObjectMoved{ID: id, Pos: r.vec3()}, nil
	case TagGameObjectRotated:
		id := r.uint64()
		return GameObjectRotated{ID: id, Rot: r.quat()}, nil
	case TagSpawnGameObject:
		id := r.uint64()
		pos := r.vec3()
		rot := r.quat()
		kind := ObjectKind(r.uint8())
		itemID := r.uint32()
		itemQty := r.uint16()
		username := r.string()
		return SpawnGameObject{ID: id, Pos: pos, Rot: rot, Kind: kind, ItemID: itemID, ItemQty: itemQty, Username: username}, nil
	case TagDespawnGameObject:
		return DespawnGameObject{ID: r.uint64()}, nil
	case TagBlockUpdate:
		x, y, z := r.int32(), r.int32(), r.int32()
		return BlockUpdate{X: x, Y: y, Z: z, ID: r.uint32()}, nil
	case TagPlaceBlock:
		x, y, z := r.int32(), r.int32(), r.int32()
		return PlaceBlock{X: x, Y: y, Z: z}, nil
	case TagDestroyBlock:
		x, y, z := r.int32(), r.int32(), r.int32()
		return DestroyBlock{X: x, Y: y, Z: z}, nil
	case TagFullChunkUpdate:
		x, y, z := r.int32(), r.int32(), r.int32()
		var data [FullChunkBlocks]uint32
		for i := range data {
			data[i] = r.uint32()
		}
		return FullChunkUpdate{X: x, Y: y, Z: z, Data: data}, nil
	case TagPartialChunkUpdate:
		id, part := r.uint32(), r.uint32()
		x, y, z := r.int32(), r.int32(), r.int32()
		var data [PartialChunkSize]uint32
		for i := range data {
			data[i] = r.uint32()
		}
		return PartialChunkUpdate{ID: id, Part: part, X: x, Y: y, Z: z, Data: data}, nil
	case TagAcknowledgeChunk:
		x, y, z := r.int32(), r.int32(), r.int32()
		return AcknowledgeChunk{X: x, Y: y, Z: z}, nil
	case TagUnloadAllChunks:
		return UnloadAllChunks{}, nil
	case TagServerState:
		return ServerState{State: ServerStateKind(r.uint8())}, nil
	case TagChatSent:
		return ChatSent{Message: r.string()}, nil
	case TagUpdateInventory:
		var slots [InventorySlotCount]ItemStack
		for i := range slots {
			slots[i] = ItemStack{ItemID: r.uint32(), Count: r.uint16()}
		}
		return UpdateInventory{Slots: slots}, nil
	case TagPing:
		return Ping{Code: r.uint64()}, nil
	case TagPong:
		return Pong{Code: r.uint64()}, nil
	case TagDisconnect:
		return Disconnect{Reason: DisconnectReason(r.uint8())}, nil
	default:
		return nil, fmt.Errorf("protocol: unknown tag %d", tag)
	}
}
