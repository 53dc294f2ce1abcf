package imagefs

import (
	"bytes"
	"encoding/binary"
	stderrors "errors"
	"io"

	"github.com/bits-and-blooms/bitset"
	"github.com/zeebo/blake3"

	"github.com/jmgilman/go/imagefs/config"
	"github.com/jmgilman/go/imagefs/errors"
	"github.com/jmgilman/go/imagefs/hostfs"
)

// Image layout, all integers little-endian:
//
//	header       magic[8] version u32 blockSize u32 blocks u32 inodes u32
//	             slotsPerInode u32 nameMax u32 freeBlocks u32 freeInodes u32
//	inode map    ceil(inodes/8) bytes, bit i set when inode i is in use
//	block map    ceil(blocks/8) bytes, bit i set when block i is in use
//	inode table  inodes x (kind u8 parent i32 size u32 nameLen u16
//	             name[nameMax] slots[slotsPerInode]i32)
//	block pool   blocks x (used u32 data[blockSize])
//	digest       BLAKE3-256 of everything above
const (
	imageVersion = 1
	headerSize   = 8 + 8*4
	digestSize   = 32
)

var imageMagic = [8]byte{'I', 'M', 'A', 'G', 'E', 'F', 'S', 0}

var errTruncated = stderrors.New("image is truncated")

// imageSize returns the encoded size of an image with geometry g.
func imageSize(g config.Geometry) int {
	inodeRecord := 1 + 4 + 4 + 2 + g.NameMax + 4*g.SlotsPerInode
	blockRecord := 4 + g.BlockSize
	return headerSize +
		bitmapSize(g.Inodes) + bitmapSize(g.Blocks) +
		g.Inodes*inodeRecord +
		g.Blocks*blockRecord +
		digestSize
}

func bitmapSize(n int) int {
	return (n + 7) / 8
}

// Encode writes the whole image to w.
func (f *FS) Encode(w io.Writer) error {
	f.mu.Lock()
	data := f.encode()
	f.mu.Unlock()

	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, errors.CodeExternalIO, "failed to write image")
	}
	return nil
}

func (f *FS) encode() []byte {
	g := f.geom
	le := binary.LittleEndian
	buf := make([]byte, 0, imageSize(g))

	buf = append(buf, imageMagic[:]...)
	for _, v := range []int{
		imageVersion,
		g.BlockSize, g.Blocks, g.Inodes, g.SlotsPerInode, g.NameMax,
		f.sb.FreeBlocks, f.sb.FreeInodes,
	} {
		buf = le.AppendUint32(buf, uint32(v))
	}

	buf = appendBitmap(buf, f.inodeMap, g.Inodes)
	buf = appendBitmap(buf, f.blockMap, g.Blocks)

	name := make([]byte, g.NameMax)
	for i := range f.inodes {
		n := &f.inodes[i]
		buf = append(buf, byte(n.kind))
		buf = le.AppendUint32(buf, uint32(int32(n.parent)))
		buf = le.AppendUint32(buf, uint32(n.size))
		buf = le.AppendUint16(buf, uint16(len(n.name)))

		clear(name)
		copy(name, n.name)
		buf = append(buf, name...)

		for s := range g.SlotsPerInode {
			slot := int32(-1)
			switch {
			case n.children != nil:
				slot = int32(n.children[s])
			case n.blocks != nil:
				slot = int32(n.blocks[s])
			}
			buf = le.AppendUint32(buf, uint32(slot))
		}
	}

	for i := range f.blocks {
		buf = le.AppendUint32(buf, uint32(f.blocks[i].used))
		buf = append(buf, f.blocks[i].data...)
	}

	sum := blake3.Sum256(buf)
	return append(buf, sum[:]...)
}

func appendBitmap(buf []byte, bits *bitset.BitSet, n int) []byte {
	packed := make([]byte, bitmapSize(n))
	for i := range n {
		if bits.Test(uint(i)) {
			packed[i/8] |= 1 << (i % 8)
		}
	}
	return append(buf, packed...)
}

// Decode reads an image produced by Encode. The digest, header and geometry
// are verified and the rebuilt image must pass Check; any failure is
// reported as CodeInvalidImage.
func Decode(r io.Reader, opts ...Option) (*FS, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeExternalIO, "failed to read image")
	}
	return decode(data, newOptions(opts))
}

func decode(data []byte, o *options) (*FS, error) {
	if len(data) < headerSize+digestSize {
		return nil, invalidImage(errTruncated, "image is too short")
	}

	body, digest := data[:len(data)-digestSize], data[len(data)-digestSize:]
	sum := blake3.Sum256(body)
	if !bytes.Equal(sum[:], digest) {
		return nil, errors.New(errors.CodeInvalidImage, "image digest mismatch")
	}

	c := &cursor{buf: body}
	var magic [8]byte
	copy(magic[:], c.take(len(magic)))
	if magic != imageMagic {
		return nil, errors.New(errors.CodeInvalidImage, "not an image: bad magic")
	}
	if v := c.u32(); v != imageVersion {
		return nil, errors.WithContext(
			errors.New(errors.CodeInvalidImage, "unsupported image version"),
			"version", v,
		)
	}

	g := config.Geometry{
		BlockSize:     int(c.u32()),
		Blocks:        int(c.u32()),
		Inodes:        int(c.u32()),
		SlotsPerInode: int(c.u32()),
		NameMax:       int(c.u32()),
	}
	if err := config.Validate(g); err != nil {
		return nil, invalidImage(err, "image geometry is invalid")
	}
	if want := imageSize(g); len(data) != want {
		return nil, errors.WithContextMap(
			errors.New(errors.CodeInvalidImage, "image size does not match its geometry"),
			map[string]interface{}{"size": len(data), "expected": want},
		)
	}

	f := newEmpty(g, o)
	f.sb.FreeBlocks = int(c.u32())
	f.sb.FreeInodes = int(c.u32())

	if err := readBitmap(c, f.inodeMap, g.Inodes); err != nil {
		return nil, invalidImage(err, "inode map is invalid")
	}
	if err := readBitmap(c, f.blockMap, g.Blocks); err != nil {
		return nil, invalidImage(err, "block map is invalid")
	}

	for i := range f.inodes {
		if err := f.readInode(c, InodeID(i)); err != nil {
			return nil, invalidImage(err, "inode table is invalid")
		}
	}

	for i := range f.blocks {
		used := int(c.u32())
		if used > g.BlockSize {
			return nil, errors.WithContext(
				errors.New(errors.CodeInvalidImage, "block usage exceeds block size"),
				"block", i,
			)
		}
		f.blocks[i].used = used
		copy(f.blocks[i].data, c.take(g.BlockSize))
	}
	if c.err != nil {
		return nil, invalidImage(c.err, "image is truncated")
	}

	if err := f.check(); err != nil {
		return nil, invalidImage(err, "image failed consistency check")
	}
	f.logger.Debug("image decoded", "bytes", len(data), "inodes_used", g.Inodes-f.sb.FreeInodes, "blocks_used", g.Blocks-f.sb.FreeBlocks)
	return f, nil
}

func (f *FS) readInode(c *cursor, id InodeID) error {
	g := f.geom
	n := &f.inodes[id]

	kind := Kind(c.u8())
	parent := c.i32()
	size := c.u32()
	nameLen := int(c.u16())
	name := c.take(g.NameMax)
	if c.err != nil {
		return c.err
	}

	if kind > KindFile {
		return errors.Newf(errors.CodeInvalidImage, "inode %d has unknown kind %d", id, kind)
	}
	if parent < -1 || int(parent) >= g.Inodes {
		return errors.Newf(errors.CodeInvalidImage, "inode %d has out of range parent %d", id, parent)
	}
	if nameLen > g.NameMax {
		return errors.Newf(errors.CodeInvalidImage, "inode %d name length %d exceeds %d", id, nameLen, g.NameMax)
	}
	if int64(size) > int64(g.MaxFileSize()) {
		return errors.Newf(errors.CodeInvalidImage, "inode %d size %d exceeds the file limit", id, size)
	}

	n.kind = kind
	n.parent = InodeID(parent)
	n.size = int(size)
	n.name = string(name[:nameLen])

	switch kind {
	case KindDirectory:
		n.children = make([]InodeID, g.SlotsPerInode)
	case KindFile:
		n.blocks = make([]BlockID, g.SlotsPerInode)
	}

	for s := range g.SlotsPerInode {
		slot := c.i32()
		switch kind {
		case KindDirectory:
			if slot < -1 || int(slot) >= g.Inodes {
				return errors.Newf(errors.CodeInvalidImage, "inode %d slot %d references inode %d", id, s, slot)
			}
			n.children[s] = InodeID(slot)
		case KindFile:
			if slot < -1 || int(slot) >= g.Blocks {
				return errors.Newf(errors.CodeInvalidImage, "inode %d slot %d references block %d", id, s, slot)
			}
			n.blocks[s] = BlockID(slot)
		default:
			if slot != -1 {
				return errors.Newf(errors.CodeInvalidImage, "free inode %d has a used slot", id)
			}
		}
	}
	return c.err
}

func readBitmap(c *cursor, bits *bitset.BitSet, n int) error {
	packed := c.take(bitmapSize(n))
	if c.err != nil {
		return c.err
	}
	for i, b := range packed {
		for j := range 8 {
			if b&(1<<j) == 0 {
				continue
			}
			idx := i*8 + j
			if idx >= n {
				return errors.New(errors.CodeInvalidImage, "bitmap has bits set past its end")
			}
			bits.Set(uint(idx))
		}
	}
	return nil
}

func invalidImage(err error, message string) errors.PlatformError {
	return errors.Wrap(err, errors.CodeInvalidImage, message)
}

// Save writes the image to name on host. The host file is replaced
// atomically.
func (f *FS) Save(host hostfs.FS, name string) error {
	f.mu.Lock()
	data := f.encode()
	f.mu.Unlock()

	if err := hostfs.WriteFileAtomic(host, name, data, 0o644); err != nil {
		return errors.WrapWithContext(err, errors.CodeExternalIO, "failed to save image", map[string]interface{}{
			"host_path": name,
		})
	}
	f.logger.Debug("image saved", "host_path", name, "bytes", len(data))
	return nil
}

// Load reads and decodes the image stored at name on host.
func Load(host hostfs.FS, name string, opts ...Option) (*FS, error) {
	data, err := host.ReadFile(name)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeExternalIO, "failed to load image", map[string]interface{}{
			"host_path": name,
		})
	}
	f, err := decode(data, newOptions(opts))
	if err != nil {
		return nil, errors.WithContext(err, "host_path", name)
	}
	return f, nil
}

// cursor reads fixed-size little-endian fields from a byte slice. The first
// short read sets err and every later read returns zero values.
type cursor struct {
	buf []byte
	off int
	err error
}

func (c *cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || len(c.buf)-c.off < n {
		c.err = errTruncated
		return nil
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b
}

func (c *cursor) u8() uint8 {
	b := c.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (c *cursor) u16() uint16 {
	b := c.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (c *cursor) u32() uint32 {
	b := c.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (c *cursor) i32() int32 {
	return int32(c.u32())
}
