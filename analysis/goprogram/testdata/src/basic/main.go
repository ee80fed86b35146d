package main

type Animal interface{ Name() string }

type Person struct{ name string }

type Dog struct{ owner *Person }

func (d *Dog) Name() string { return "dog" }

func id(x *Dog) *Dog {
	return x // @PointsTo(d1, d2)
}

func owner(d *Dog) *Person {
	return d.owner // @PointsTo(alice)
}

func main() {
	alice := &Person{name: "alice"} // @Alloc(alice)
	d1 := &Dog{owner: alice}        // @Alloc(d1)
	d2 := &Dog{}                    // @Alloc(d2)
	a := id(d1)
	b := id(d2)
	var x Animal = a
	println(x.Name(), b.Name(), owner(a).name)
}
