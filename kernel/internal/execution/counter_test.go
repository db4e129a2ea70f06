package execution_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scusemua/notebook-kernel/kernel/internal/execution"
)

var _ = Describe("Counter", func() {
	It("will start at zero and allocate from one", func() {
		counter := &execution.Counter{}
		Expect(counter.Current()).To(Equal(0))
		Expect(counter.Next()).To(Equal(1))
		Expect(counter.Next()).To(Equal(2))
		Expect(counter.Current()).To(Equal(2))
	})

	It("will never allocate the same value twice", func() {
		counter := &execution.Counter{}

		const workers, perWorker = 8, 250
		results := make(chan int, workers*perWorker)

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()

				for j := 0; j < perWorker; j++ {
					results <- counter.Next()
					_ = counter.Current()
				}
			}()
		}
		wg.Wait()
		close(results)

		seen := make(map[int]struct{}, workers*perWorker)
		for value := range results {
			Expect(seen).ToNot(HaveKey(value))
			seen[value] = struct{}{}
		}

		Expect(seen).To(HaveLen(workers * perWorker))
		Expect(counter.Current()).To(Equal(workers * perWorker))
	})
})
