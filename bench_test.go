package greenrt_test

import (
	"testing"

	"github.com/meridian-lang/greenrt"
)

func BenchmarkSpawnAwait(b *testing.B) {
	rt := greenrt.New(greenrt.WithWorkers(4))
	defer rt.Shutdown()
	tc := rt.Root()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sc := rt.EnterScope(tc)
		h := greenrt.Spawn(tc, func(_ *greenrt.TaskContext) int64 { return 1 })
		_ = h.Await(tc)
		rt.ExitScope(tc, sc)
	}
}

func BenchmarkScopeFanout(b *testing.B) {
	rt := greenrt.New(greenrt.WithWorkers(4))
	defer rt.Shutdown()
	tc := rt.Root()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sc := rt.EnterScope(tc)
		for j := 0; j < 100; j++ {
			greenrt.Spawn(tc, func(_ *greenrt.TaskContext) int64 { return 1 })
		}
		rt.ExitScope(tc, sc)
	}
}

func BenchmarkChannelBounded(b *testing.B) {
	ch := greenrt.NewChannel[int](128)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, ok := ch.Recv(); !ok {
				return
			}
		}
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ch.Send(i)
	}
	b.StopTimer()
	ch.Close()
	<-done
}

func BenchmarkChannelUnbounded(b *testing.B) {
	ch := greenrt.NewChannel[int](0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ch.Send(i)
	}
	b.StopTimer()
	ch.Close()
	for {
		if _, ok := ch.Recv(); !ok {
			break
		}
	}
}

func BenchmarkCapturePackUnpack(b *testing.B) {
	d := greenrt.NewCaptureDescriptor(
		greenrt.KindI64, greenrt.KindF64, greenrt.KindBool, greenrt.KindI32,
	)
	values := []greenrt.Word{
		greenrt.I64Word(1), greenrt.F64Word(2.5), greenrt.BoolWord(true), greenrt.I32Word(-3),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf := d.Pack(values)
		_ = buf.Unpack()
	}
}
