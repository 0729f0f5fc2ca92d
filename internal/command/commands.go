package command

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/nikshvein/personhub/internal/domain"
)

// Collection is the slice of the write-through collection the closed
// command set depends on. Implemented by internal/collection.Collection.
type Collection interface {
	Snapshot() []domain.Person
	Add(ctx context.Context, p domain.Person) (domain.Person, error)
	RemoveAt(ctx context.Context, index int) (domain.Person, bool, error)
	RemoveByID(ctx context.Context, id int64, ownerID int64, enforceOwner bool) (bool, error)
	RemoveWhere(ctx context.Context, pred func(domain.Person) bool) ([]domain.Person, error)
}

// RegisterDefault populates reg with the closed command set from the
// specification, bound to coll.
func RegisterDefault(reg *Registry, coll Collection) {
	reg.Register(Descriptor{
		Name:            "add",
		ArgNames:        nil,
		HelpText:        "add a new person to the collection",
		RequiredPersons: 1,
		Execute:         addCommand(coll),
	})
	reg.Register(Descriptor{
		Name:            "remove_by_id",
		ArgNames:        []string{"id"},
		HelpText:        "remove the person with the given id, if you own it",
		RequiredPersons: 0,
		Execute:         removeByIDCommand(coll),
	})
	reg.Register(Descriptor{
		Name:            "remove_first",
		ArgNames:        nil,
		HelpText:        "remove the first element of the collection",
		RequiredPersons: 0,
		Execute:         removeFirstCommand(coll),
	})
	reg.Register(Descriptor{
		Name:            "remove_greater",
		ArgNames:        nil,
		HelpText:        "remove every person with a strictly greater BMI than the given one",
		RequiredPersons: 1,
		Execute:         removeGreaterCommand(coll),
	})
	reg.Register(Descriptor{
		Name:            "clear",
		ArgNames:        nil,
		HelpText:        "remove every person you own",
		RequiredPersons: 0,
		Execute:         clearCommand(coll),
	})
	reg.Register(Descriptor{
		Name:            "show",
		ArgNames:        nil,
		HelpText:        "show every person in the collection",
		RequiredPersons: 0,
		Execute:         showCommand(coll),
	})
	reg.Register(Descriptor{
		Name:            "head",
		ArgNames:        nil,
		HelpText:        "show the first element of the collection",
		RequiredPersons: 0,
		Execute:         headCommand(coll),
	})
	reg.Register(Descriptor{
		Name:            "sum_of_height",
		ArgNames:        nil,
		HelpText:        "print the sum of the height field across the collection",
		RequiredPersons: 0,
		Execute:         sumOfHeightCommand(coll),
	})
	reg.Register(Descriptor{
		Name:            "print_field_descending_hair_color",
		ArgNames:        nil,
		HelpText:        "print hairColor values of all elements in descending order",
		RequiredPersons: 0,
		Execute:         printFieldDescendingHairColorCommand(coll),
	})
	reg.Register(Descriptor{
		Name:            "save",
		ArgNames:        nil,
		HelpText:        "save the collection (no-op; persistence is write-through)",
		RequiredPersons: 0,
		Execute:         saveCommand(),
	})
	reg.Register(Descriptor{
		Name:            "execute_script",
		ArgNames:        []string{"file_name"},
		HelpText:        "read the given file and feed its commands back line by line",
		RequiredPersons: 0,
		Execute:         executeScriptCommand(),
	})
	reg.Register(Descriptor{
		Name:            "exit",
		ArgNames:        nil,
		HelpText:        "close the client",
		RequiredPersons: 0,
		Execute:         exitCommand(),
	})
	// "help" is handled directly by the router (spec §4.7 step 3) so it
	// can enumerate the registry itself; it is still registered here so
	// it appears in its own enumeration and so Lookup never reports it
	// missing.
	reg.Register(Descriptor{
		Name:            "help",
		ArgNames:        nil,
		HelpText:        "list available commands",
		RequiredPersons: 0,
		Execute:         nil,
	})
}

func addCommand(coll Collection) func(context.Context, domain.Request, Session) domain.Response {
	return func(ctx context.Context, req domain.Request, sess Session) domain.Response {
		p := req.Persons[0]
		p.OwnerID = sess.User.ID

		saved, err := coll.Add(ctx, p)
		if err != nil {
			return domain.Response{Message: err.Error()}
		}
		return domain.Response{
			Message: "Person added.",
			Persons: []domain.Person{saved},
		}
	}
}

func removeByIDCommand(coll Collection) func(context.Context, domain.Request, Session) domain.Response {
	return func(ctx context.Context, req domain.Request, sess Session) domain.Response {
		if len(req.Args) < 1 {
			return domain.Response{Message: "remove_by_id requires an integer id argument"}
		}
		id, err := strconv.ParseInt(req.Args[0], 10, 64)
		if err != nil {
			return domain.Response{Message: fmt.Sprintf("invalid id %q", req.Args[0])}
		}

		ok, err := coll.RemoveByID(ctx, id, sess.User.ID, true)
		if err != nil {
			return domain.Response{Message: err.Error()}
		}
		if !ok {
			return domain.Response{Message: fmt.Sprintf("no person with id %d", id)}
		}
		return domain.Response{Message: fmt.Sprintf("Person %d removed.", id)}
	}
}

func removeFirstCommand(coll Collection) func(context.Context, domain.Request, Session) domain.Response {
	return func(ctx context.Context, req domain.Request, sess Session) domain.Response {
		victim, ok, err := coll.RemoveAt(ctx, 0)
		if err != nil {
			return domain.Response{Message: err.Error()}
		}
		if !ok {
			return domain.Response{Message: "the collection is empty"}
		}
		return domain.Response{
			Message: "First person removed.",
			Persons: []domain.Person{victim},
		}
	}
}

func removeGreaterCommand(coll Collection) func(context.Context, domain.Request, Session) domain.Response {
	return func(ctx context.Context, req domain.Request, sess Session) domain.Response {
		refBMI := req.Persons[0].BMI()
		removed, err := coll.RemoveWhere(ctx, func(p domain.Person) bool { return p.BMI() > refBMI })
		if err != nil {
			return domain.Response{Message: err.Error()}
		}
		return domain.Response{
			Message: fmt.Sprintf("%d person(s) removed.", len(removed)),
			Persons: removed,
		}
	}
}

func clearCommand(coll Collection) func(context.Context, domain.Request, Session) domain.Response {
	return func(ctx context.Context, req domain.Request, sess Session) domain.Response {
		removed, err := coll.RemoveWhere(ctx, func(p domain.Person) bool { return p.OwnerID == sess.User.ID })
		if err != nil {
			return domain.Response{Message: err.Error()}
		}
		return domain.Response{
			Message: fmt.Sprintf("%d of your person(s) removed.", len(removed)),
			Persons: removed,
		}
	}
}

func showCommand(coll Collection) func(context.Context, domain.Request, Session) domain.Response {
	return func(ctx context.Context, req domain.Request, sess Session) domain.Response {
		return domain.Response{Persons: coll.Snapshot()}
	}
}

func headCommand(coll Collection) func(context.Context, domain.Request, Session) domain.Response {
	return func(ctx context.Context, req domain.Request, sess Session) domain.Response {
		snap := coll.Snapshot()
		if len(snap) == 0 {
			return domain.Response{Message: "the collection is empty"}
		}
		return domain.Response{Persons: snap[:1]}
	}
}

func sumOfHeightCommand(coll Collection) func(context.Context, domain.Request, Session) domain.Response {
	return func(ctx context.Context, req domain.Request, sess Session) domain.Response {
		var sum int
		for _, p := range coll.Snapshot() {
			sum += p.Height
		}
		return domain.Response{Message: fmt.Sprintf("%d", sum)}
	}
}

func printFieldDescendingHairColorCommand(coll Collection) func(context.Context, domain.Request, Session) domain.Response {
	return func(ctx context.Context, req domain.Request, sess Session) domain.Response {
		order := domain.HairColorsDescending()
		rank := make(map[domain.HairColor]int, len(order))
		for i, c := range order {
			rank[c] = i
		}

		snap := coll.Snapshot()
		sort.SliceStable(snap, func(i, j int) bool {
			return rank[snap[i].HairColor] < rank[snap[j].HairColor]
		})

		colors := make([]string, len(snap))
		for i, p := range snap {
			colors[i] = string(p.HairColor)
		}
		return domain.Response{Message: strings.Join(colors, ", ")}
	}
}

func saveCommand() func(context.Context, domain.Request, Session) domain.Response {
	return func(ctx context.Context, req domain.Request, sess Session) domain.Response {
		return domain.Response{Message: "OK"}
	}
}

func executeScriptCommand() func(context.Context, domain.Request, Session) domain.Response {
	return func(ctx context.Context, req domain.Request, sess Session) domain.Response {
		if len(req.Args) < 1 {
			return domain.Response{Message: "execute_script requires a file_name argument"}
		}
		data, err := os.ReadFile(req.Args[0])
		if err != nil {
			return domain.Response{Message: fmt.Sprintf("cannot read script %q: %v", req.Args[0], err)}
		}
		return domain.Response{Script: string(data)}
	}
}

func exitCommand() func(context.Context, domain.Request, Session) domain.Response {
	return func(ctx context.Context, req domain.Request, sess Session) domain.Response {
		return domain.Response{Message: "Goodbye."}
	}
}
