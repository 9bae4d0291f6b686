package rip

// Recorder observes manager activity for metrics purposes. It is kept
// as a narrow interface, defined separately from anything that
// implements it, so this package never imports a metrics client
// library directly.
type Recorder interface {
	PacketReceived()
	PacketDropped()
	EntryDropped()
	UpdateSent(triggered bool)
	TableSize(n int)
}

// NopRecorder discards every observation.
type NopRecorder struct{}

func (NopRecorder) PacketReceived()       {}
func (NopRecorder) PacketDropped()        {}
func (NopRecorder) EntryDropped()         {}
func (NopRecorder) UpdateSent(bool)       {}
func (NopRecorder) TableSize(int)         {}
